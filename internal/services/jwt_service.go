package services

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
)

const deleteConfirmationPurpose = "delete_confirmation"

// DefaultConfirmationTTL は削除確認トークンの有効期間です。
const DefaultConfirmationTTL = 5 * time.Minute

// ErrInvalidConfirmation は削除確認トークンが不正・期限切れ・別タスク用の場合のエラーです。
var ErrInvalidConfirmation = errors.New("invalid delete confirmation")

// JWTService は削除確認ダイアログ用の短命トークンを生成・検証します。
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService は新しいJWTServiceを作成します。
// secretが空の場合は起動ごとにランダムな鍵を生成します (再起動で未使用の確認は無効になります)。
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	key := []byte(secret)
	if len(key) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("failed to generate JWT secret: %v", err)
		}
		key = []byte(hex.EncodeToString(buf))
		log.Warn("JWT_SECRET not set, using a random per-process secret")
	}
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	return &JWTService{secret: key, ttl: ttl, now: time.Now}
}

// GenerateDeleteConfirmation は指定タスクの削除確認トークンを生成します。
func (s *JWTService) GenerateDeleteConfirmation(taskID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"task_id": taskID,
		"purpose": deleteConfirmationPurpose,
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// ValidateDeleteConfirmation はトークンが指定タスクの有効な削除確認であるかを検証します。
func (s *JWTService) ValidateDeleteConfirmation(tokenString string, taskID int64) error {
	if tokenString == "" {
		return ErrInvalidConfirmation
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithJSONNumber())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfirmation, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidConfirmation
	}
	purpose, ok := claims["purpose"].(string)
	if !ok || purpose != deleteConfirmationPurpose {
		return fmt.Errorf("%w: invalid token purpose", ErrInvalidConfirmation)
	}
	// float64を経由すると2^53を超えるIDが一致しなくなる
	idNumber, ok := claims["task_id"].(json.Number)
	if !ok {
		return fmt.Errorf("%w: missing task id", ErrInvalidConfirmation)
	}
	id, err := idNumber.Int64()
	if err != nil || id != taskID {
		return fmt.Errorf("%w: token is for another task", ErrInvalidConfirmation)
	}
	return nil
}
