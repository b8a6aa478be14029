// Package rules implements the RuleEngine: a rule-file schema and the
// evaluator that scores a candidate outgoing segment against it,
// returning a Verdict.
package rules

import (
	"fmt"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/ridi-bike/ridi-router/internal/rerrors"
	"gopkg.in/yaml.v3"
)

// TagAction is one entry of the highway/surface/smoothness maps: either an
// avoid verdict or a priority weight.
type TagAction struct {
	Action string `yaml:"action" validate:"required,oneof=avoid priority"`
	Value  uint8  `yaml:"value,omitempty" validate:"max=255"`
}

// BasicRules carries the always-present heuristics, with sensible
// defaults baked in via Defaults().
type BasicRules struct {
	StepLimit int `yaml:"step_limit" validate:"gt=0"`

	PreferSameRoad struct {
		Enabled  bool  `yaml:"enabled"`
		Priority uint8 `yaml:"priority"`
	} `yaml:"prefer_same_road"`

	ProgressionDirection struct {
		Enabled            bool `yaml:"enabled"`
		CheckJunctionsBack int  `yaml:"check_junctions_back" validate:"gte=0"`
	} `yaml:"progression_direction"`

	ProgressionSpeed struct {
		Enabled                        bool    `yaml:"enabled"`
		CheckStepsBack                 int     `yaml:"check_steps_back" validate:"gte=0"`
		LastStepDistanceBelowAvgWithRatio float64 `yaml:"last_step_distance_below_avg_with_ratio" validate:"gte=0"`
	} `yaml:"progression_speed"`

	NoShortDetours struct {
		Enabled       bool    `yaml:"enabled"`
		MinDetourLenM float64 `yaml:"min_detour_len_m" validate:"gte=0"`
	} `yaml:"no_short_detours"`

	NoSharpTurns struct {
		Enabled  bool    `yaml:"enabled"`
		UnderDeg float64 `yaml:"under_deg" validate:"gte=0,lte=360"`
		Priority uint8   `yaml:"priority"`
	} `yaml:"no_sharp_turns"`
}

// RuleFile is the data-only rule-file schema evaluated by the RuleEngine.
type RuleFile struct {
	Basic      BasicRules           `yaml:"basic"`
	Highway    map[string]TagAction `yaml:"highway,omitempty"`
	Surface    map[string]TagAction `yaml:"surface,omitempty"`
	Smoothness map[string]TagAction `yaml:"smoothness,omitempty"`
}

// Defaults returns the RuleFile used when no rule-file is supplied,
// matching the "always present with defaults" guarantee basic rules carry.
func Defaults() RuleFile {
	rf := RuleFile{}
	rf.Basic.StepLimit = 1_000_000
	rf.Basic.PreferSameRoad.Enabled = true
	rf.Basic.PreferSameRoad.Priority = 30
	rf.Basic.ProgressionDirection.Enabled = true
	rf.Basic.ProgressionDirection.CheckJunctionsBack = 50
	rf.Basic.ProgressionSpeed.Enabled = false
	rf.Basic.ProgressionSpeed.CheckStepsBack = 1000
	rf.Basic.ProgressionSpeed.LastStepDistanceBelowAvgWithRatio = 1.3
	rf.Basic.NoShortDetours.Enabled = true
	rf.Basic.NoShortDetours.MinDetourLenM = 5000
	rf.Basic.NoSharpTurns.Enabled = true
	rf.Basic.NoSharpTurns.UnderDeg = 150
	rf.Basic.NoSharpTurns.Priority = 60
	return rf
}

var validate = newValidator()

func newValidator() *validator.Validate {
	return validator.New()
}

// Validate runs struct-tag validation over rf, translating errors to
// English, then checks every tag map entry's action.
func Validate(rf RuleFile) error {
	if err := validate.Struct(rf); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)

		if verrs, ok := err.(validator.ValidationErrors); ok {
			msg := ""
			for _, fe := range verrs {
				msg += fmt.Sprintf("%s; ", fe.Translate(trans))
			}
			return rerrors.New(rerrors.RuleFileInvalid, "%s", msg)
		}
		return rerrors.Wrap(rerrors.RuleFileInvalid, err, "rule-file validation failed")
	}
	for _, m := range []map[string]TagAction{rf.Highway, rf.Surface, rf.Smoothness} {
		for k, v := range m {
			if v.Action != "avoid" && v.Action != "priority" {
				return rerrors.New(rerrors.RuleFileInvalid, "tag %q has unknown action %q", k, v.Action)
			}
		}
	}
	return nil
}

// Load reads and validates a RuleFile from path, falling back to Defaults
// when path is empty, using an explicit empty-path sentinel rather than a
// stdin TTY check since this CLI is driven by cobra flags.
func Load(path string) (RuleFile, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleFile{}, rerrors.Wrap(rerrors.RuleFileInvalid, err, "failed to read rule-file %q", path)
	}
	return Parse(data)
}

// Parse validates and unmarshals raw YAML rule-file bytes, layering them
// over Defaults. Used directly by callers that already have the bytes in
// hand instead of a path, such as a Request arriving over the IPC socket.
func Parse(data []byte) (RuleFile, error) {
	rf := Defaults()
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return RuleFile{}, rerrors.Wrap(rerrors.RuleFileInvalid, err, "failed to parse rule-file")
	}
	if err := Validate(rf); err != nil {
		return RuleFile{}, err
	}
	return rf, nil
}
