package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/ingest/internal/utils"
)

const (
	booleanFlagTypeName               = "bool"
	sizeFlagTypeName                  = "size"
	booleanFlagTrueLiteral            = "true"
	booleanFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueErrorLabel = "invalid boolean value"
	sizeFlagInvalidValueErrorFormat   = "invalid size for --%s: %w"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// optionalBooleanFlag leaves its target nil until the flag appears on the command line, so
// configuration values survive when the flag is omitted. Inverted flags such as --no-gitignore
// store the negation of the parsed literal.
type optionalBooleanFlag struct {
	target   **bool
	flagKey  string
	inverted bool
}

func (value *optionalBooleanFlag) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q", booleanFlagInvalidValueErrorLabel, input)
	}
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueErrorLabel, input, value.flagKey, booleanFlagAcceptedValuesListing)
	}
	if value.inverted {
		parsed = !parsed
	}
	*value.target = &parsed
	return nil
}

func (value *optionalBooleanFlag) String() string {
	if value == nil || value.target == nil || *value.target == nil {
		return "false"
	}
	current := **value.target
	if value.inverted {
		current = !current
	}
	return strconv.FormatBool(current)
}

func (value *optionalBooleanFlag) Type() string {
	return booleanFlagTypeName
}

// optionalSizeFlag parses human-readable byte counts into a nil-until-set target.
type optionalSizeFlag struct {
	target  **int64
	flagKey string
}

func (value *optionalSizeFlag) Set(input string) error {
	parsed, err := utils.ParseFileSize(input)
	if err != nil {
		return fmt.Errorf(sizeFlagInvalidValueErrorFormat, value.flagKey, err)
	}
	*value.target = &parsed
	return nil
}

func (value *optionalSizeFlag) String() string {
	if value == nil || value.target == nil || *value.target == nil {
		return ""
	}
	return strconv.FormatInt(**value.target, 10)
}

func (value *optionalSizeFlag) Type() string {
	return sizeFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target **bool, name string, inverted bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	flagSet.Var(&optionalBooleanFlag{target: target, flagKey: name, inverted: inverted}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = "false"
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

func registerSizeFlag(flagSet *pflag.FlagSet, target **int64, name string, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	flagSet.Var(&optionalSizeFlag{target: target, flagKey: name}, name, usage)
}

// normalizeBooleanFlagArguments joins "--flag value" pairs into "--flag=value" for boolean
// flags whose next argument is a boolean literal. pflag would otherwise treat the literal as
// a positional argument.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	index := 0
	for index < len(arguments) {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, "--") && !strings.Contains(currentArgument, "=") {
			flagName := strings.TrimPrefix(currentArgument, "--")
			if _, exists := booleanFlags[flagName]; exists && index+1 < len(arguments) {
				nextArgument := arguments[index+1]
				literal := strings.ToLower(strings.TrimSpace(nextArgument))
				if _, valid := booleanFlagLiterals[literal]; valid && !strings.HasPrefix(nextArgument, "-") {
					normalized = append(normalized, fmt.Sprintf("--%s=%s", flagName, nextArgument))
					index += 2
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
		index++
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil || target == nil {
		return
	}
	visit := func(flagSet *pflag.FlagSet) {
		if flagSet == nil {
			return
		}
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag == nil || flag.Value == nil {
				return
			}
			if flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
