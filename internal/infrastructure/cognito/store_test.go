package cognito

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/otp-file-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) SignUp(ctx context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.SignUpOutput)
	return out, args.Error(1)
}
func (m *mockAPI) InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.InitiateAuthOutput)
	return out, args.Error(1)
}
func (m *mockAPI) GetUser(ctx context.Context, in *cip.GetUserInput, _ ...func(*cip.Options)) (*cip.GetUserOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.GetUserOutput)
	return out, args.Error(1)
}
func (m *mockAPI) ListUsers(ctx context.Context, in *cip.ListUsersInput, _ ...func(*cip.Options)) (*cip.ListUsersOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.ListUsersOutput)
	return out, args.Error(1)
}

func attrs(kv ...string) []types.AttributeType {
	var out []types.AttributeType
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, types.AttributeType{Name: aws.String(kv[i]), Value: aws.String(kv[i+1])})
	}
	return out
}

func TestSecretHash_KnownVector(t *testing.T) {
	// HMAC-SHA256(key="secret", "userclient") base64-encoded.
	assert.Equal(t, "wvW87lzZoI+qQCVGmWVBJLlucdJ65huAVP1z+0MgA6E=", secretHash("user", "client", "secret"))
}

func TestSignUp_SendsSecretHash(t *testing.T) {
	api := &mockAPI{}
	api.On("SignUp", mock.Anything, mock.MatchedBy(func(in *cip.SignUpInput) bool {
		return aws.ToString(in.Username) == "a@x.com" &&
			aws.ToString(in.SecretHash) == secretHash("a@x.com", "client", "shh")
	})).Return(&cip.SignUpOutput{UserSub: aws.String("sub-1")}, nil)

	u, err := NewStore(api, "pool", "client", "shh").SignUp(context.Background(), "a@x.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", u.UserID)
	assert.Equal(t, "a@x.com", u.Email)
}

func TestSignUp_ProviderRejects(t *testing.T) {
	api := &mockAPI{}
	api.On("SignUp", mock.Anything, mock.Anything).Return(nil, &types.InvalidPasswordException{Message: aws.String("Password not long enough")})

	_, err := NewStore(api, "pool", "client", "").SignUp(context.Background(), "a@x.com", "pw")
	assert.ErrorIs(t, err, domain.ErrCredentialRejected)
	assert.EqualError(t, err, "Password not long enough: credentials rejected")
}

func TestSignUp_Outage(t *testing.T) {
	api := &mockAPI{}
	api.On("SignUp", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

	_, err := NewStore(api, "pool", "client", "").SignUp(context.Background(), "a@x.com", "Passw0rd!")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrCredentialRejected))
}

func TestSignIn_ResolvesSub(t *testing.T) {
	api := &mockAPI{}
	api.On("InitiateAuth", mock.Anything, mock.MatchedBy(func(in *cip.InitiateAuthInput) bool {
		return in.AuthFlow == types.AuthFlowTypeUserPasswordAuth && in.AuthParameters["PASSWORD"] == "Passw0rd!"
	})).Return(&cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{AccessToken: aws.String("pool-access")},
	}, nil)
	api.On("GetUser", mock.Anything, mock.MatchedBy(func(in *cip.GetUserInput) bool {
		return aws.ToString(in.AccessToken) == "pool-access"
	})).Return(&cip.GetUserOutput{UserAttributes: attrs("sub", "sub-1", "email", "a@x.com")}, nil)

	u, err := NewStore(api, "pool", "client", "").SignIn(context.Background(), "a@x.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", u.UserID)
}

func TestSignIn_WrongPassword(t *testing.T) {
	api := &mockAPI{}
	api.On("InitiateAuth", mock.Anything, mock.Anything).Return(nil, &types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")})

	_, err := NewStore(api, "pool", "client", "").SignIn(context.Background(), "a@x.com", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.EqualError(t, err, "Incorrect username or password.: invalid credentials")
	api.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestSignIn_ChallengeIsNotASuccess(t *testing.T) {
	api := &mockAPI{}
	api.On("InitiateAuth", mock.Anything, mock.Anything).Return(&cip.InitiateAuthOutput{
		ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
	}, nil)

	_, err := NewStore(api, "pool", "client", "").SignIn(context.Background(), "a@x.com", "Passw0rd!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLookupByID(t *testing.T) {
	api := &mockAPI{}
	api.On("ListUsers", mock.Anything, mock.MatchedBy(func(in *cip.ListUsersInput) bool {
		return aws.ToString(in.Filter) == `sub = "sub-1"`
	})).Return(&cip.ListUsersOutput{Users: []types.UserType{{Attributes: attrs("sub", "sub-1", "email", "a@x.com")}}}, nil)
	api.On("ListUsers", mock.Anything, mock.Anything).Return(&cip.ListUsersOutput{}, nil)
	store := NewStore(api, "pool", "client", "")

	u, err := store.LookupByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)

	_, err = store.LookupByID(context.Background(), "sub-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.LookupByID(context.Background(), `x" or sub = "`)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
