package processor

import (
	"autosales/internal/observability"
	"autosales/internal/store"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthProcessor struct {
	store       AuthStore
	mailer      Mailer
	emailSender string
	jwtSecret   string
	logger      *observability.Logger
}

func New(store AuthStore, mailer Mailer, emailSender, jwtSecret string, logger *observability.Logger) AuthProcessor {
	return AuthProcessor{
		store:       store,
		mailer:      mailer,
		emailSender: emailSender,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

type SignedUpUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Plan  string    `json:"plan"`
}

func (p *AuthProcessor) Signup(ctx context.Context, name, email, password string) (SignedUpUser, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "email", Value: email})
	exists, err := p.store.CheckIfEmailExists(ctx, email)
	if err != nil {
		p.logger.Error(ctx, "failed to check if email exists", err)
		return SignedUpUser{}, err
	}
	if exists {
		return SignedUpUser{}, ErrEmailAlreadyExists
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error(ctx, "failed to hash password", err)
		return SignedUpUser{}, err
	}
	user, err := p.store.CreateUser(ctx, store.CreateUserParams{
		Email:          email,
		HashedPassword: string(hashedPassword),
		Name:           name,
		Plan:           store.UserPlanTrial,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to create user", err)
		return SignedUpUser{}, err
	}

	// Welcome email failure must not fail the signup
	if p.mailer != nil {
		subject := "Bem-vindo ao AutoSales"
		body := fmt.Sprintf("<p>Olá %s,</p><p>Sua conta no AutoSales está pronta. Importe seus contatos e comece a enviar cobranças.</p>", user.Name)
		if _, mailErr := p.mailer.SendEmail(ctx, p.emailSender, user.Email, subject, body); mailErr != nil {
			p.logger.Error(ctx, "failed to send welcome email", mailErr)
		}
	}

	return SignedUpUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Plan:  user.Plan,
	}, nil
}

func (p *AuthProcessor) Login(ctx context.Context, email, password string) (string, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "email", Value: email})
	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		p.logger.Error(ctx, "failed to get user by email", err)
		return "", err
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password))
	if err != nil {
		p.logger.Error(ctx, "failed to compare hashed password", err)
		return "", ErrInvalidCredentials
	}
	token, err := p.generateJWTToken(user)
	if err != nil {
		p.logger.Error(ctx, "failed to generate jwt token", err)
		return "", err
	}
	return token, nil
}

func (p *AuthProcessor) GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error) {
	user, err := p.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, ErrUserNotFound
		}
		p.logger.Error(ctx, "failed to get user by id", err)
		return store.User{}, err
	}
	return user, nil
}
