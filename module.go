package cacheservice

import (
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/config"
)

// Module names where a cache's settings are read from and the binding it is exposed under.
// An empty Token is the default binding.
type Module struct {
	Keys  config.Keys
	Token string
}

// DefaultModule reads cache.* and binds the default service.
func DefaultModule() Module {
	return Module{Keys: config.MustKeys(constants.DefaultPrefix)}
}

// AnnotatedWith reads <prefix>.cache.* and binds the service under token, so that several caches
// configured under distinct prefixes coexist in one registry.
func AnnotatedWith(token, prefix string) (Module, error) {
	if strings.TrimSpace(token) == "" {
		return Module{}, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "binding token")
	}

	if strings.TrimSpace(prefix) == "" {
		return Module{}, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "prefix")
	}

	return Module{Keys: config.MustKeys(constants.DefaultPrefix).Rebind(prefix), Token: token}, nil
}

// NamedInstance reads cache.<instance>.* and binds the service under token.
func NamedInstance(token, instance string) (Module, error) {
	if strings.TrimSpace(token) == "" {
		return Module{}, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "binding token")
	}

	keys, err := config.NewKeys(constants.DefaultPrefix, config.WithInstance(instance))
	if err != nil {
		return Module{}, err
	}

	return Module{Keys: keys, Token: token}, nil
}

// String implements fmt.Stringer.
func (m Module) String() string {
	token := m.Token
	if token == "" {
		token = constants.DefaultBindingToken
	}

	return token + " <- " + m.Keys.String()
}
