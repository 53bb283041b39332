package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/config"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store/memory"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: "short"}))
	assert.Error(t, validateSecurityConfig(config.Config{
		AuthSecret:        "0123456789abcdef0123456789abcdef",
		DatabaseURL:       "postgres://localhost/pos",
		SeedAdminPassword: "abc",
	}))
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	assert.NoError(t, validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"}))
}

func TestEnsureAdminCreatesOnlyWhenMissing(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	require.NoError(t, ensureAdmin(ctx, repo, ""))
	_, err := repo.GetUser(ctx, "admin")
	require.Error(t, err)

	require.NoError(t, ensureAdmin(ctx, repo, "s3cret-admin"))
	first, err := repo.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, first.Role)
	assert.NotEqual(t, "s3cret-admin", first.Password)

	require.NoError(t, ensureAdmin(ctx, repo, "another-password"))
	second, err := repo.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, first.Password, second.Password)
}
