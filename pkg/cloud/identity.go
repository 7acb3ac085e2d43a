package cloud

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// FileTokenResolver reads the cloud access token from a file on disk. The
// token is a JWT issued by the remote; its claims are read without signature
// verification since verification is the remote's job, but an expired token
// resolves to no identity so stale sessions never push.
type FileTokenResolver struct {
	path   string
	parser *jwt.Parser
}

func NewFileTokenResolver(path string) *FileTokenResolver {
	return &FileTokenResolver{
		path:   path,
		parser: jwt.NewParser(),
	}
}

// Token implements TokenSource. A missing file means signed out, not an
// error.
func (r *FileTokenResolver) Token() (string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", errors.WithStack(err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Resolve implements Resolver.
func (r *FileTokenResolver) Resolve(_ context.Context) (*Identity, error) {
	token, err := r.Token()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	claims := jwt.MapClaims{}
	_, _, err = r.parser.ParseUnverified(token, claims)
	if err != nil {
		return nil, errors.Wrap(err, "malformed cloud token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("cloud token has no subject")
	}

	identity := &Identity{OwnerID: sub}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if exp.Before(time.Now()) {
			return nil, nil
		}
		identity.ExpiresAt = exp.UnixMilli()
	}

	return identity, nil
}
