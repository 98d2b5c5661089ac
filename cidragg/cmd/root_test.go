// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/cidragg/pkg/cidr"
	"github.com/cilium/cidragg/pkg/metrics"
)

// run executes the command line args with stdin as standard input and
// returns what was written to standard output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCmd(viper.New())
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	return out.String(), err
}

func lines(ss ...string) string {
	if len(ss) == 0 {
		return ""
	}
	return strings.Join(ss, "\n") + "\n"
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		want  string
	}{
		{
			name:  "siblings merge",
			input: lines("10.0.0.0/24", "10.0.1.0/24"),
			want:  lines("10.0.0.0/23"),
		},
		{
			name:  "contained prefix is dropped",
			input: lines("10.0.0.0/23", "10.0.0.5/32"),
			want:  lines("10.0.0.0/23"),
		},
		{
			name:  "bare address is a host prefix",
			input: lines("192.168.1.1"),
			want:  lines("192.168.1.1/32"),
		},
		{
			name:  "host bits are masked",
			input: lines("1.2.3.4/24"),
			want:  lines("1.2.3.0/24"),
		},
		{
			name:  "host bits are rejected with --ignore-invalid",
			args:  []string{"--ignore-invalid"},
			input: lines("1.2.3.4/24"),
			want:  "",
		},
		{
			name:  "default route swallows everything",
			input: lines("0.0.0.0/0", "10.0.0.0/8"),
			want:  lines("0.0.0.0/0"),
		},
		{
			name: "eight siblings collapse over several passes",
			input: lines(
				"10.1.2.0/27", "10.1.2.32/27", "10.1.2.64/27", "10.1.2.96/27",
				"10.1.2.128/27", "10.1.2.160/27", "10.1.2.192/27", "10.1.2.224/27",
			),
			want: lines("10.1.2.0/24"),
		},
		{
			name:  "invalid records are skipped",
			input: "foo\n10.0.0.0/33\n\n  10.0.0.0/8  \n::1\n",
			want:  lines("10.0.0.0/8"),
		},
		{
			name:  "output is sorted",
			input: lines("192.168.0.0/16", "10.0.0.0/8", "172.16.0.0/12"),
			want:  lines("10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"),
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "ipv6 siblings merge",
			args:  []string{"-6"},
			input: lines("2001:db8::/33", "2001:db8:8000::/33", "10.0.0.0/8"),
			want:  lines("2001:db8::/32"),
		},
		{
			name:  "ipv6 bare address",
			args:  []string{"--ipv6"},
			input: lines("2001:db8::1"),
			want:  lines("2001:db8::1/128"),
		},
		{
			name:  "stdin by dash",
			args:  []string{"-"},
			input: lines("10.0.0.0/24", "10.0.1.0/24"),
			want:  lines("10.0.0.0/23"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.input, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines("10.0.0.0/24", "10.0.1.0/24")), 0644))

	got, err := run(t, "ignored\n", path)
	require.NoError(t, err)
	assert.Equal(t, lines("10.0.0.0/23"), got)
}

func TestAggregateMissingFile(t *testing.T) {
	got, err := run(t, "", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to open input")
	assert.Empty(t, got)
}

func TestAggregateTooManyArgs(t *testing.T) {
	_, err := run(t, "", "a", "b")
	require.Error(t, err)
}

func TestAggregateStructuredOutput(t *testing.T) {
	in := lines("10.0.0.0/24", "10.0.1.0/24", "192.168.0.0/16")

	got, err := run(t, in, "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"family\": \"ipv4\",\n  \"prefixes\": [\n    \"10.0.0.0/23\",\n    \"192.168.0.0/16\"\n  ]\n}\n", got)

	got, err = run(t, in, "--output", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "family: ipv4\nprefixes:\n- 10.0.0.0/23\n- 192.168.0.0/16\n", got)

	got, err = run(t, in, "-o", "jsonpath={.prefixes[*]}")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/23 192.168.0.0/16\n", got)

	got, err = run(t, "", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"family\": \"ipv4\",\n  \"prefixes\": []\n}\n", got)

	_, err = run(t, in, "-o", "xml")
	require.Error(t, err)
}

func TestAggregateConfiguration(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "cidragg.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("ignore-invalid: true\n"), 0644))

	got, err := run(t, lines("1.2.3.4/24", "5.6.7.0/24"), "--config", cfgFile)
	require.NoError(t, err)
	assert.Equal(t, lines("5.6.7.0/24"), got)

	t.Setenv("CIDRAGG_IPV6", "true")
	got, err = run(t, lines("10.0.0.0/8", "2001:db8::/32"))
	require.NoError(t, err)
	assert.Equal(t, lines("2001:db8::/32"), got)

	// flags win over the environment
	got, err = run(t, lines("10.0.0.0/8", "2001:db8::/32"), "--ipv6=false")
	require.NoError(t, err)
	assert.Equal(t, lines("10.0.0.0/8"), got)
}

func TestAggregateInvalidConfiguration(t *testing.T) {
	_, err := run(t, "", "--log-opt", "format=xml")
	require.Error(t, err)

	_, err = run(t, "", "--log-opt", "max-age=soon")
	require.Error(t, err)

	_, err = run(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestAggregateMetrics(t *testing.T) {
	accepted := testutil.ToFloat64(metrics.InputRecords.WithLabelValues(metrics.LabelValueOutcomeAccepted))
	merges := metrics.GetCounterValue(metrics.AggregationMerges)

	path := filepath.Join(t.TempDir(), "cidragg.prom")
	got, err := run(t, lines("10.0.0.0/24", "10.0.1.0/24", "bogus"), "--metrics-file", path)
	require.NoError(t, err)
	assert.Equal(t, lines("10.0.0.0/23"), got)

	assert.Equal(t, accepted+2, testutil.ToFloat64(metrics.InputRecords.WithLabelValues(metrics.LabelValueOutcomeAccepted)))
	assert.Equal(t, merges+1, metrics.GetCounterValue(metrics.AggregationMerges))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cidragg_input_records_total")
	assert.Contains(t, string(data), `cidragg_input_records_skipped_total{reason="invalid-address"}`)
	assert.Contains(t, string(data), `cidragg_output_prefixes{family="ipv4"} 1`)
}

func TestGenerate(t *testing.T) {
	got, err := run(t, "", "generate", "10", "--seed", "1")
	require.NoError(t, err)

	records := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, records, 10)
	parser := cidr.Parser{Family: cidr.FamilyV4, Strict: true}
	for i, r := range records {
		p, err := parser.Parse(r)
		require.NoError(t, err, r)
		if i < 5 {
			assert.Equal(t, 32, p.Bits(), r)
		} else {
			assert.GreaterOrEqual(t, p.Bits(), 16, r)
			assert.LessOrEqual(t, p.Bits(), 31, r)
		}
	}

	again, err := run(t, "", "generate", "10", "--seed", "1")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	// the generated records aggregate without loss of input records
	_, err = run(t, got)
	require.NoError(t, err)
}

func TestGenerateIPv6(t *testing.T) {
	got, err := run(t, "", "-6", "generate", "4", "--seed", "3", "--min-prefix-len", "48", "--max-prefix-len", "48")
	require.NoError(t, err)

	records := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, records, 4)
	assert.True(t, strings.HasSuffix(records[0], "/128"))
	assert.True(t, strings.HasSuffix(records[1], "/128"))
	assert.True(t, strings.HasSuffix(records[2], "/48"))
	assert.True(t, strings.HasSuffix(records[3], "/48"))
}

func TestGenerateStructuredOutput(t *testing.T) {
	got, err := run(t, "", "generate", "2", "--seed", "5", "-o", "jsonpath={.family}")
	require.NoError(t, err)
	assert.Equal(t, "ipv4\n", got)
}

func TestGenerateInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"generate"},
		{"generate", "x"},
		{"generate", "-1"},
		{"generate", "10", "--min-prefix-len", "40"},
		{"generate", "10", "--min-prefix-len", "24", "--max-prefix-len", "8"},
	} {
		_, err := run(t, "", args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestCompletion(t *testing.T) {
	got, err := run(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, got, "SPDX-License-Identifier")
	assert.Contains(t, got, "__start_cidragg")

	got, err = run(t, "", "completion", "zsh")
	require.NoError(t, err)
	assert.Contains(t, got, "#compdef cidragg")

	_, err = run(t, "", "completion", "tcsh")
	require.Error(t, err)
}
