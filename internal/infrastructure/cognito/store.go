// Package cognito adapts an Amazon Cognito user pool to the gateway's
// credential store. It is selected with AUTH_PROVIDER=cognito.
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/otp-file-gateway/internal/domain"
)

type api interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	ListUsers(ctx context.Context, params *cip.ListUsersInput, optFns ...func(*cip.Options)) (*cip.ListUsersOutput, error)
}

// Store verifies credentials against a user pool app client. The pool's own
// session tokens are only used to resolve the user and are then dropped.
type Store struct {
	client       api
	userPoolID   string
	clientID     string
	clientSecret string
}

// NewClient creates a Cognito Identity Provider client. When endpointURL is
// set (LocalStack), it overrides the endpoint.
func NewClient(awsCfg aws.Config, endpointURL string) *cip.Client {
	clientOpts := []func(*cip.Options){}
	if endpointURL != "" {
		clientOpts = append(clientOpts, func(o *cip.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
	}
	return cip.NewFromConfig(awsCfg, clientOpts...)
}

func NewStore(client api, userPoolID, clientID, clientSecret string) *Store {
	return &Store{client: client, userPoolID: userPoolID, clientID: clientID, clientSecret: clientSecret}
}

func (s *Store) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	in := &cip.SignUpInput{
		ClientId: aws.String(s.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	}
	if s.clientSecret != "" {
		in.SecretHash = aws.String(secretHash(email, s.clientID, s.clientSecret))
	}
	out, err := s.client.SignUp(ctx, in)
	if err != nil {
		return nil, mapSignUpError(err)
	}
	return &domain.User{UserID: aws.ToString(out.UserSub), Email: email}, nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if s.clientSecret != "" {
		params["SECRET_HASH"] = secretHash(email, s.clientID, s.clientSecret)
	}
	out, err := s.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(s.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, mapSignInError(err)
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.AccessToken == nil {
		return nil, fmt.Errorf("challenge %q required: %w", out.ChallengeName, domain.ErrInvalidCredentials)
	}

	u, err := s.client.GetUser(ctx, &cip.GetUserInput{AccessToken: out.AuthenticationResult.AccessToken})
	if err != nil {
		return nil, fmt.Errorf("cognito get user: %w", err)
	}
	user := userFromAttributes(u.UserAttributes)
	if user.Email == "" {
		user.Email = email
	}
	return user, nil
}

func (s *Store) LookupByID(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" || strings.ContainsAny(userID, `"\`) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	out, err := s.client.ListUsers(ctx, &cip.ListUsersInput{
		UserPoolId: aws.String(s.userPoolID),
		Filter:     aws.String(fmt.Sprintf("sub = %q", userID)),
		Limit:      aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("cognito list users: %w", err)
	}
	if len(out.Users) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	user := userFromAttributes(out.Users[0].Attributes)
	if user.UserID == "" {
		user.UserID = userID
	}
	return user, nil
}

func userFromAttributes(attrs []types.AttributeType) *domain.User {
	u := &domain.User{}
	for _, a := range attrs {
		switch aws.ToString(a.Name) {
		case "sub":
			u.UserID = aws.ToString(a.Value)
		case "email":
			u.Email = aws.ToString(a.Value)
		}
	}
	return u
}

// secretHash is Base64(HMAC_SHA256(secret, username + clientID)), required by
// app clients that have a secret.
func secretHash(username, clientID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func mapSignUpError(err error) error {
	var (
		exists *types.UsernameExistsException
		weak   *types.InvalidPasswordException
		param  *types.InvalidParameterException
	)
	if errors.As(err, &exists) || errors.As(err, &weak) || errors.As(err, &param) {
		return fmt.Errorf("%s: %w", providerMessage(err), domain.ErrCredentialRejected)
	}
	return fmt.Errorf("cognito sign up: %w", err)
}

func mapSignInError(err error) error {
	var (
		notAuth     *types.NotAuthorizedException
		notFound    *types.UserNotFoundException
		unconfirmed *types.UserNotConfirmedException
		reset       *types.PasswordResetRequiredException
	)
	if errors.As(err, &notAuth) || errors.As(err, &notFound) || errors.As(err, &unconfirmed) || errors.As(err, &reset) {
		return fmt.Errorf("%s: %w", providerMessage(err), domain.ErrInvalidCredentials)
	}
	return fmt.Errorf("cognito initiate auth: %w", err)
}

func providerMessage(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorMessage()
	}
	return err.Error()
}
