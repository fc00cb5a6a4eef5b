package auth_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/nfrais/notes-de-frais/internal/auth"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockUserRepository struct {
	users  map[string]*auth.User // by id
	hashes map[string]string     // by email
	ids    map[string]string     // email -> id

	getErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:  make(map[string]*auth.User),
		hashes: make(map[string]string),
		ids:    make(map[string]string),
	}
}

func (m *mockUserRepository) addUser(id, email, fullName, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	m.users[id] = &auth.User{ID: id, Email: email, FullName: fullName}
	m.hashes[email] = string(hash)
	m.ids[email] = id
}

func (m *mockUserRepository) GetPasswordForEmail(email string) (string, string, error) {
	hash, ok := m.hashes[email]
	if !ok {
		return "", "", auth.ErrUserNotFound
	}
	return hash, m.ids[email], nil
}

func (m *mockUserRepository) GetUserByID(id string) (*auth.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}

var _ = Describe("Service", func() {
	var (
		repo    *mockUserRepository
		tokens  *auth.JWTTokenGenerator
		service *auth.Service
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		repo.addUser("user-1", "jean@nfrais.fr", "Jean Dupont", "s3cret-pass")
		tokens = auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		service = auth.NewService(repo, tokens, bcrypt.MinCost)
	})

	Describe("Authenticate", func() {
		It("issues both tokens for valid credentials", func() {
			pair, err := service.Authenticate(auth.LoginDTO{Email: "jean@nfrais.fr", Password: "s3cret-pass"})
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.AccessToken).NotTo(BeEmpty())
			Expect(pair.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("user-1"))
			Expect(claims.Email).To(Equal("jean@nfrais.fr"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "jean@nfrais.fr", Password: "wrong"})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects an unknown email the same way", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "nobody@nfrais.fr", Password: "s3cret-pass"})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects a malformed payload", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "", Password: "s3cret-pass"})
			var vErr auth.ValidationError
			Expect(errors.As(err, &vErr)).To(BeTrue())
		})
	})

	Describe("RefreshTokens", func() {
		It("rotates the pair from a valid refresh token", func() {
			pair, err := service.Authenticate(auth.LoginDTO{Email: "jean@nfrais.fr", Password: "s3cret-pass"})
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.RefreshTokens(pair.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.AccessToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(rotated.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("user-1"))
		})

		It("rejects garbage", func() {
			_, err := service.RefreshTokens("not-a-token")
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})

	Describe("token validation", func() {
		It("rejects an expired access token", func() {
			shortLived := auth.NewJWTTokenGenerator("access-secret", "refresh-secret", -time.Minute, 7*24*time.Hour)
			token, err := shortLived.GenerateAccessToken("user-1", "jean@nfrais.fr")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateToken(token)
			Expect(err).To(MatchError(auth.ErrTokenExpired))
		})

		It("rejects a token signed with another secret", func() {
			other := auth.NewJWTTokenGenerator("other-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
			token, err := other.GenerateAccessToken("user-1", "jean@nfrais.fr")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateToken(token)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})

	Describe("GetDisplayName", func() {
		It("returns the full name for the spreadsheet header", func() {
			name, err := service.GetDisplayName("user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("Jean Dupont"))
		})

		It("returns a blank name for a missing profile", func() {
			name, err := service.GetDisplayName("ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(BeEmpty())
		})

		It("propagates repository failures", func() {
			repo.getErr = errors.New("connection reset")
			_, err := service.GetDisplayName("user-1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("HashPassword", func() {
		It("produces a hash the verifier accepts", func() {
			hash, err := service.HashPassword("new-pass")
			Expect(err).NotTo(HaveOccurred())
			Expect(auth.VerifyPassword(hash, "new-pass")).To(Succeed())
			Expect(auth.VerifyPassword(hash, "other")).NotTo(Succeed())
		})
	})
})
