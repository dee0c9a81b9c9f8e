// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"

	"github.com/spf13/viper"
)

func TestSecretDefault(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		loadedSecrets = nil
	})

	loadedSecrets = map[string]string{"openai-api-key": "from-secrets"}

	if got := secretDefault("openai-api-key", "from-flag"); got != "from-flag" {
		t.Errorf("flag value should win, got %q", got)
	}

	viper.Set("openai-api-key", "from-env")
	if got := secretDefault("openai-api-key", ""); got != "from-env" {
		t.Errorf("environment should win over .secrets/, got %q", got)
	}

	viper.Set("openai-api-key", "")
	if got := secretDefault("openai-api-key", ""); got != "from-secrets" {
		t.Errorf(".secrets/ should be the last resort, got %q", got)
	}

	if got := secretDefault("gemini-api-key", ""); got != "" {
		t.Errorf("unknown key should resolve empty, got %q", got)
	}
}

func TestCompareRawOCRDirDefault(t *testing.T) {
	got, err := compareCmd.PersistentFlags().GetString("raw-ocr-dir")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ocr-no-ad" {
		t.Errorf("raw-ocr-dir default = %q, want ocr-no-ad", got)
	}
}
