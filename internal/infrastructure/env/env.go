package env

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultPrefix = "IMGSCOUT_"

// EnvService reads prefixed variables after loading .env and .env.$IMGSCOUT_ENV.
type EnvService struct {
	prefix string
	lookup func(string) (string, bool)
}

func NewEnvService() *EnvService {
	appEnv := os.Getenv(DefaultPrefix + "ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Info: no .env file found (this is OK)")
	}

	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load %s: %v", envFile, err)
	}

	return &EnvService{prefix: DefaultPrefix, lookup: os.LookupEnv}
}

// FromMap builds a service over fixed values, for tests and embedding.
func FromMap(prefix string, vars map[string]string) *EnvService {
	return &EnvService{
		prefix: prefix,
		lookup: func(key string) (string, bool) {
			v, ok := vars[key]
			return v, ok
		},
	}
}

func (e *EnvService) Get(key string) string {
	v, _ := e.lookup(e.prefix + key)
	return strings.TrimSpace(v)
}

func (e *EnvService) GetString(key, defaultValue string) string {
	if v := e.Get(key); v != "" {
		return v
	}
	return defaultValue
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetFloat(key string, defaultValue float64) float64 {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
