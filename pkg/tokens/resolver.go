package tokens

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"

	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/providers"
	"insider-hq/relay/pkg/security/crypto"
)

// PathParam names the request parameter selecting a configuration item whose
// "_token" detail overrides the provider token.
const PathParam = "_path"

// ItemLookup finds configuration items by path.
type ItemLookup interface {
	Get(ctx context.Context, path string) (*items.Item, error)
}

// Decrypter opens "enc_" ciphertexts.
type Decrypter interface {
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Resolver computes the bearer token for each upstream attempt. It implements
// providers.TokenSource.
type Resolver struct {
	items  ItemLookup
	crypto Decrypter
	logger *slog.Logger
}

// NewResolver creates a Resolver. Either dependency may be nil: without an
// item lookup "_path" is ignored, without a decrypter encrypted tokens are
// only base64 decoded.
func NewResolver(lookup ItemLookup, dec Decrypter) *Resolver {
	return &Resolver{
		items:  lookup,
		crypto: dec,
		logger: slog.Default().With("component", "tokens"),
	}
}

// WithLogger sets the logger and returns r.
func (r *Resolver) WithLogger(l *slog.Logger) *Resolver {
	if l != nil {
		r.logger = l
	}
	return r
}

// Resolve returns the token for p. It never fails: every problem is logged
// and the best available value is used.
func (r *Resolver) Resolve(ctx context.Context, p *providers.Provider, req *providers.Request) string {
	token := p.Token
	if override, ok := r.override(ctx, req.Param(PathParam)); ok {
		token = override
	}
	return r.decrypt(ctx, token)
}

func (r *Resolver) override(ctx context.Context, path string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" || r.items == nil {
		return "", false
	}
	it, err := r.items.Get(ctx, path)
	if err != nil {
		r.logger.WarnContext(ctx, "could not read token override", "path", path, "error", err)
		return "", false
	}
	token := it.Detail(items.TokenDetail)
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	r.logger.DebugContext(ctx, "using item token", "path", path)
	return token, true
}

func (r *Resolver) decrypt(ctx context.Context, token string) string {
	encoded, ok := strings.CutPrefix(token, crypto.EncryptedPrefix)
	if !ok {
		return token
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		r.logger.ErrorContext(ctx, "encrypted token is not valid base64", "error", err)
		return token
	}
	if r.crypto == nil {
		r.logger.WarnContext(ctx, "encrypted token found but no key is configured")
		return string(raw)
	}
	plain, err := r.crypto.Decrypt(raw)
	if err != nil {
		r.logger.ErrorContext(ctx, "could not decrypt token", "error", err)
		return string(raw)
	}
	return string(plain)
}
