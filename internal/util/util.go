package util

import (
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/aws/smithy-go/logging"
	"github.com/rs/zerolog"
)

var shaExp = regexp.MustCompile(`^[a-f0-9]{40}$`)

func ShaLike(str string) bool {
	return shaExp.MatchString(str)
}

// ShortSha returns the first seven characters of a sha-like string, or the string unchanged.
func ShortSha(str string) string {
	if !ShaLike(str) {
		return str
	}
	return str[:7]
}

// Coalesce returns the first non-empty value.
func Coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// SplitCsv splits a comma separated list, dropping blanks.
func SplitCsv(str string) []string {
	var parts []string
	for _, part := range strings.Split(str, ",") {
		if part = Chomp(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func Chomp(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	return s
}

func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func InLambda() bool {
	_, inLambda := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME")
	return inLambda
}

func OtelConfigPresent() bool {
	_, present := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT")
	return present
}

func SetLogLevel() {
	if level, exists := os.LookupEnv("LOG_LEVEL"); exists {
		level = strings.ToLower(level)
		switch level {
		case "panic":
			zerolog.SetGlobalLevel(zerolog.PanicLevel)
		case "fatal":
			zerolog.SetGlobalLevel(zerolog.FatalLevel)
		case "error":
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		case "warn":
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		case "info":
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		case "debug":
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case "trace":
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
		default:
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
		return
	}

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// Wraps a zerolog.Logger so the AWS SDK can log retries through it.

type AwsLogInterface interface {
	// Logf is expected to support the standard fmt package "verbs".
	Logf(classification logging.Classification, format string, v ...interface{})
}

type RetryLogger struct {
	Log *zerolog.Logger
}

func (l *RetryLogger) Logf(classification logging.Classification, format string, v ...interface{}) {
	switch classification {
	case "WARN":
		l.Log.Warn().Msgf(format, v...)
	case "DEBUG":
		if strings.Contains(format, "retrying request") {
			l.Log.Info().Msgf(format, v...)
		} else {
			l.Log.Debug().Msgf(format, v...)
		}
	default:
		l.Log.Error().Msgf(format, v...)
	}
}
