package tools

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by repositories when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// CheckEnvs checks the environment variables.
func CheckEnvs(envNames ...string) {
	for _, env := range envNames {
		envStr, exist := os.LookupEnv(env)

		if !exist {
			log.Fatal().Str("env", env).Msg("env variable not found")
		}

		if envStr == "" {
			log.Fatal().Str("env", env).Msg("env variable not initialized")
		}
	}
}

// GetEnvDefault returns the value of the env variable or def when it is unset or empty.
func GetEnvDefault(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// GetEnvDuration parses the env variable as a time.Duration, falling back to def.
func GetEnvDuration(env string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %w", env, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration in %s must be positive", env)
	}
	return d, nil
}

// GetEnvInt parses the env variable as a positive int, falling back to def.
func GetEnvInt(env string, def int) (int, error) {
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer in %s: %w", env, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("value in %s must be positive", env)
	}
	return n, nil
}

// SaveImg saves the image to disk.
func SaveImg(img image.Image, imgPath string) (err error) {
	out, err := os.Create(imgPath)
	if err != nil {
		return err
	}
	defer out.Close()

	return jpeg.Encode(out, img, nil)
}
