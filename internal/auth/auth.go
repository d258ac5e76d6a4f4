package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "conduit"

type UserClaim struct {
	jwt.RegisteredClaims
}

// Auth hashes passwords with bcrypt and issues HS256 signed tokens whose
// subject is the user id.
type Auth struct {
	secret     []byte
	ttl        time.Duration
	bcryptCost int
}

var _ core.Auth = (*Auth)(nil)

func New(secret string, ttl time.Duration, bcryptCost int) *Auth {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Auth{
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcryptCost,
	}
}

func (auth *Auth) CreateToken(userID int64) (string, error) {
	now := time.Now()
	claim := UserClaim{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(auth.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	signedString, err := token.SignedString(auth.secret)
	if err != nil {
		return "", xerrors.New(err)
	}
	return signedString, nil
}

func (auth *Auth) ParseToken(tokenString string) (int64, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &UserClaim{}, func(token *jwt.Token) (interface{}, error) {
		return auth.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !parsedToken.Valid {
		return 0, xerrors.New(core.ErrInvalidToken)
	}

	claim, ok := parsedToken.Claims.(*UserClaim)
	if !ok {
		return 0, xerrors.New(core.ErrInvalidToken)
	}

	userID, err := strconv.ParseInt(claim.Subject, 10, 64)
	if err != nil {
		return 0, xerrors.New(core.ErrInvalidToken)
	}
	return userID, nil
}

func (auth *Auth) EncryptPassword(plain string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plain), auth.bcryptCost)
	if err != nil {
		return "", xerrors.New(err)
	}
	return string(hashedPassword), nil
}

func (auth *Auth) CheckPassword(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, xerrors.New(err)
	}

	return true, nil
}
