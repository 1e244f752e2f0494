// Package account gère les comptes: inscription, connexion, token de session et
// réinitialisation du mot de passe.
package account

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/storage"
	"electrocart_back_end/internal/utils"
)

// ResetTokenTTL durée de validité d'un token de réinitialisation
const ResetTokenTTL = 10 * time.Minute

const (
	MsgEmailExists        = "Email exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidResetToken  = "Invalid or expired reset token"
	MsgTokenInvalid       = "Token invalid"
	MsgResetRequested     = "If email exists, password reset link has been sent"
)

// dummyHash sert à garder un temps de réponse constant quand l'email est inconnu.
var dummyHash, _ = utils.HashPassword("electrocart-timing-placeholder")

type Service struct {
	users      storage.UserStore
	mailer     utils.Mailer
	jwtSecret  string
	clientURL  string
	production bool
	now        func() time.Time
}

type Options struct {
	JWTSecret  string
	ClientURL  string
	Production bool
}

func NewService(users storage.UserStore, mailer utils.Mailer, opts Options) *Service {
	return &Service{
		users:      users,
		mailer:     mailer,
		jwtSecret:  opts.JWTSecret,
		clientURL:  strings.TrimRight(opts.ClientURL, "/"),
		production: opts.Production,
		now:        time.Now,
	}
}

// AuthResult réponse de register/login
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// ResetTicket n'est rempli qu'en dehors de la production, pour tester sans SMTP.
type ResetTicket struct {
	Token string
	URL   string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(MsgEmailExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal("Registration failed", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("Registration failed", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Conflict(MsgEmailExists)
		}
		return nil, apperr.Internal("Registration failed", err)
	}

	log.Printf("✅ Nouvel utilisateur inscrit: %s", email)
	return s.issue(user)
}

// Login ne distingue pas « email inconnu » de « mauvais mot de passe ».
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Internal("Login failed", err)
		}
		utils.VerifyPassword(password, dummyHash)
		return nil, apperr.Validation(MsgInvalidCredentials)
	}
	if !utils.VerifyPassword(password, user.PasswordHash) {
		return nil, apperr.Validation(MsgInvalidCredentials)
	}
	return s.issue(user)
}

func (s *Service) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateJWT(s.jwtSecret, user.ID, s.now())
	if err != nil {
		return nil, apperr.Internal("Could not sign token", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// RequestPasswordReset stocke l'empreinte du token et envoie le lien par email.
// Le ticket renvoyé est nil en production ou si l'email est inconnu.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*ResetTicket, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal("Failed to process password reset request", err)
	}

	token, tokenHash, err := utils.GenerateResetToken()
	if err != nil {
		return nil, apperr.Internal("Failed to process password reset request", err)
	}

	// email inconnu: même génération de token et même UPDATE sur un id qui n'existe pas
	if user == nil {
		err := s.users.SetResetToken(ctx, uuid.NewString(), tokenHash, s.now().Add(ResetTokenTTL))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("⚠️ Reset mot de passe (email inconnu): %v", err)
		}
		return nil, nil
	}

	if err := s.users.SetResetToken(ctx, user.ID, tokenHash, s.now().Add(ResetTokenTTL)); err != nil {
		return nil, apperr.Internal("Failed to process password reset request", err)
	}

	resetURL := s.clientURL + "/reset-password/" + token
	subject, body := utils.PasswordResetEmail(user.Name, resetURL)
	go func(to string) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(sendCtx, to, subject, body); err != nil {
			log.Printf("❌ Erreur envoi email reset à %s: %v", to, err)
			return
		}
		log.Printf("✅ Email de réinitialisation envoyé à %s", to)
	}(user.Email)

	if s.production {
		return nil, nil
	}
	return &ResetTicket{Token: token, URL: resetURL}, nil
}

// ResetPassword consomme le token: un second appel avec le même token échoue.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return apperr.Validation("Token and password are required")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperr.Internal("Password reset failed", err)
	}
	user, err := s.users.ResetPassword(ctx, utils.HashResetToken(token), hash, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Validation(MsgInvalidResetToken)
		}
		return apperr.Internal("Password reset failed", err)
	}
	log.Printf("✅ Mot de passe réinitialisé pour %s", user.Email)
	return nil
}

// Authenticate vérifie le token et recharge l'utilisateur
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := utils.ParseJWT(s.jwtSecret, tokenString)
	if err != nil {
		return nil, apperr.Unauthenticated(MsgTokenInvalid)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Unauthenticated(MsgTokenInvalid)
		}
		return nil, apperr.Internal("Authentication failed", err)
	}
	return user, nil
}

// EnsureAdmin crée le compte admin s'il n'existe pas, sinon le promeut et met à jour
// le mot de passe quand il est fourni.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, apperr.Validation("Admin email and password are required")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.SetAdmin(ctx, user.ID, true); err != nil {
			return nil, false, err
		}
		if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
			return nil, false, err
		}
		user.IsAdmin = true
		return user, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, false, err
	}

	now := s.now()
	user = &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}
