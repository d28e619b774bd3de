package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rtimcp/internal/codec"
	"rtimcp/internal/formatting"
)

type convertFlags struct {
	file   string
	to     string
	render string
}

var convertOpts convertFlags

// newConvertCmd re-encodes a tool result payload.
func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a tool result between response formats",
		Long: `Reads a tool result payload ({"format": ..., "data": ...}) from --file or
stdin and either re-encodes it into another response format (--to) or
renders the decoded table for humans (--render).

Formats: json, csv, tsv, columnar, header_arrays.

Examples:
  rtimcp convert --to csv --file result.json
  cat result.json | rtimcp convert --render table`,
		Args: cobra.NoArgs,
		RunE: runConvert,
	}

	flags := cmd.Flags()
	flags.StringVarP(&convertOpts.file, "file", "f", "", "Payload file (default: stdin)")
	flags.StringVar(&convertOpts.to, "to", "", "Target response format")
	flags.StringVar(&convertOpts.render, "render", "", "Render as table, json or yaml")
	cmd.MarkFlagsOneRequired("to", "render")
	cmd.MarkFlagsMutuallyExclusive("to", "render")
	return cmd
}

func runConvert(cmd *cobra.Command, _ []string) error {
	payload, err := readPayload(cmd.InOrStdin(), convertOpts.file)
	if err != nil {
		return err
	}

	if convertOpts.render != "" {
		format, err := formatting.ParseOutputFormat(convertOpts.render)
		if err != nil {
			return err
		}
		result, err := codec.Decode(payload)
		if err != nil {
			return err
		}
		return formatting.NewPrinter(format, cmd.OutOrStdout()).Result(result)
	}

	to, err := codec.ParseFormat(convertOpts.to)
	if err != nil {
		return err
	}
	converted, err := codec.Convert(payload, to)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), converted.String())
	return err
}

// readPayload decodes the payload envelope from path, or from stdin when
// path is empty or "-".
func readPayload(stdin io.Reader, path string) (*codec.Payload, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var payload codec.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if payload.Format == "" {
		return nil, fmt.Errorf("invalid payload: missing format")
	}
	return &payload, nil
}

func init() {
	rootCmd.AddCommand(newConvertCmd())
}
