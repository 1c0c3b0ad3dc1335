package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var c Config
	c.JWT.Secret = "s3cret"
	c.JWT.ExpireMinutes = 30
	c.DB.Driver = "sqlite3"
	c.DB.Filename = "db.sqlite3"
	return c
}

func TestValidate(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())

	c.JWT.Secret = ""
	assert.ErrorIs(t, c.Validate(), ErrMissingSecret)

	c = validConfig()
	c.JWT.ExpireMinutes = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DB.Driver = "mysql"
	assert.Error(t, c.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DACTYLO_JWT_SECRET", "from-env")
	t.Setenv("DACTYLO_JWT_EXPIRE_MINUTES", "45")
	t.Setenv("DACTYLO_REDIS_ADDR", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 45*time.Minute, cfg.JWTExpiry())
	assert.Equal(t, "sqlite3", cfg.DB.Driver)
	assert.Equal(t, "0 0 * * 1", cfg.Scheduler.WeeklyCron)
	assert.Equal(t, 14, cfg.Password.BcryptCost)
}

func TestLoadWithoutSecretFails(t *testing.T) {
	t.Setenv("DACTYLO_JWT_SECRET", "")
	_, err := Load(nil)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestDSN(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "file:db.sqlite3?_foreign_keys=on&_busy_timeout=5000", c.DSN())

	c.DB.Driver = "pgx"
	c.DB.Host = "db"
	c.DB.Port = "5432"
	c.DB.User = "u"
	c.DB.Password = "p"
	c.DB.Name = "dactylo"
	c.DB.SslMode = "disable"
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=dactylo sslmode=disable", c.DSN())
}
