// Package toolchain pins the Java and Kotlin compiler targets applied to
// every subproject once the project graph has been evaluated.
package toolchain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DefaultVersion is the target used for every field when none is configured.
const DefaultVersion = "1.8"

// Targets holds the compiler target versions for a subproject.
type Targets struct {
	JavaSource      string `koanf:"java_source" json:"java_source"`
	JavaTarget      string `koanf:"java_target" json:"java_target"`
	KotlinJVMTarget string `koanf:"kotlin_jvm_target" json:"kotlin_jvm_target"`
	KotlinLanguage  string `koanf:"kotlin_language_version" json:"kotlin_language_version"`
	KotlinAPI       string `koanf:"kotlin_api_version" json:"kotlin_api_version"`
}

// Default returns Targets with every field set to DefaultVersion.
func Default() Targets {
	return Targets{
		JavaSource:      DefaultVersion,
		JavaTarget:      DefaultVersion,
		KotlinJVMTarget: DefaultVersion,
		KotlinLanguage:  DefaultVersion,
		KotlinAPI:       DefaultVersion,
	}
}

// WithDefaults fills empty fields from Default.
func (t Targets) WithDefaults() Targets {
	d := Default()
	if t.JavaSource == "" {
		t.JavaSource = d.JavaSource
	}
	if t.JavaTarget == "" {
		t.JavaTarget = d.JavaTarget
	}
	if t.KotlinJVMTarget == "" {
		t.KotlinJVMTarget = d.KotlinJVMTarget
	}
	if t.KotlinLanguage == "" {
		t.KotlinLanguage = d.KotlinLanguage
	}
	if t.KotlinAPI == "" {
		t.KotlinAPI = d.KotlinAPI
	}
	return t
}

// Validate checks that every version parses, that the Java source level does
// not exceed the target level and that the Kotlin API version does not
// exceed the language version.
func (t Targets) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"java_source", t.JavaSource},
		{"java_target", t.JavaTarget},
		{"kotlin_jvm_target", t.KotlinJVMTarget},
		{"kotlin_language_version", t.KotlinLanguage},
		{"kotlin_api_version", t.KotlinAPI},
	}

	parsed := make(map[string]*semver.Version, len(fields))
	var errs []error
	for _, f := range fields {
		v, err := ParseVersion(f.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("toolchain.%s: %w", f.name, err))
			continue
		}
		parsed[f.name] = v
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if parsed["java_source"].GreaterThan(parsed["java_target"]) {
		errs = append(errs, fmt.Errorf("toolchain: java_source %s is newer than java_target %s", t.JavaSource, t.JavaTarget))
	}
	if parsed["kotlin_api_version"].GreaterThan(parsed["kotlin_language_version"]) {
		errs = append(errs, fmt.Errorf("toolchain: kotlin_api_version %s is newer than kotlin_language_version %s", t.KotlinAPI, t.KotlinLanguage))
	}
	return errors.Join(errs...)
}

// ParseVersion parses a compiler version such as "1.8", "11" or "2.0".
func ParseVersion(s string) (*semver.Version, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("version is empty")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

// JVMTargetName returns the Kotlin Gradle DSL constant for a JVM target,
// e.g. "1.8" -> "JVM_1_8", "17" -> "JVM_17".
func JVMTargetName(version string) string {
	return "JVM_" + strings.ReplaceAll(version, ".", "_")
}

// KotlinVersionName returns the Kotlin Gradle DSL constant for a language or
// API version, e.g. "1.8" -> "KOTLIN_1_8".
func KotlinVersionName(version string) string {
	return "KOTLIN_" + strings.ReplaceAll(version, ".", "_")
}
