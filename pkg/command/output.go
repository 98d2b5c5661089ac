// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"
	"k8s.io/client-go/util/jsonpath"
	"sigs.k8s.io/yaml"
)

var (
	outputOpt   string
	jsonPathRe  = regexp.MustCompile(`^jsonpath\=(.*)`)
	errNoFormat = fmt.Errorf("couldn't find output printer")
)

// OutputOption returns true if an output option was specified.
func OutputOption() bool {
	return len(outputOpt) > 0
}

// OutputOptionString returns the output option as a string
func OutputOptionString() string {
	return outputOpt
}

// AddOutputOption adds the -o|--output option to any cmd to export to json or yaml.
func AddOutputOption(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputOpt, "output", "o", "", "json| yaml| jsonpath='{}'")
}

// ForceJSON sets output mode to JSON (for unit tests)
func ForceJSON() {
	outputOpt = "json"
}

// ValidateOutputFormat returns an error if format is not one of the
// supported printers. The empty format is valid and selects plain text.
func ValidateOutputFormat(format string) error {
	switch {
	case format == "", format == "json", format == "yaml", jsonPathRe.MatchString(format):
		return nil
	}
	return fmt.Errorf("%w for %q", errNoFormat, format)
}

// PrintOutputWithType receives an interface and dump the data using the --output flag.
// ATM only json and jsonpath. In the future yaml
func PrintOutputWithType(w io.Writer, data interface{}, outputType string) error {
	if outputType == "json" {
		return dumpJSON(w, data, "")
	}

	if outputType == "yaml" {
		return dumpYAML(w, data)
	}

	if jsonPathRe.MatchString(outputType) {
		return dumpJSON(w, data, jsonPathRe.ReplaceAllString(outputType, "$1"))
	}

	return fmt.Errorf("%w for %q", errNoFormat, outputType)
}

// dumpJSON dump the data variable to w as json.
// If something fails, it returns an error
// If jsonPath is passed, it runs the json query over data var.
func dumpJSON(w io.Writer, data interface{}, jsonPath string) error {
	if len(jsonPath) == 0 {
		result, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("couldn't marshal to json: %w", err)
		}
		fmt.Fprintln(w, string(result))
		return nil
	}

	// jsonpath walks plain maps and slices, so the data goes through its
	// json form first and marshaler methods are honoured.
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("couldn't marshal to json: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("couldn't unmarshal json: %w", err)
	}

	parser := jsonpath.New("").AllowMissingKeys(true)
	if err := parser.Parse(jsonPath); err != nil {
		return fmt.Errorf("couldn't parse jsonpath expression: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := parser.Execute(buf, generic); err != nil {
		return fmt.Errorf("couldn't execute jsonpath expression: %w", err)
	}

	fmt.Fprintln(w, buf.String())
	return nil
}

// dumpYAML dump the data variable to w as yaml.
func dumpYAML(w io.Writer, data interface{}) error {
	result, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("couldn't marshal to yaml: %w", err)
	}
	fmt.Fprint(w, string(result))
	return nil
}
