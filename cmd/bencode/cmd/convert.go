package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/bencode"
	"github.com/unkn0wn-root/bencode/codec"
)

// formats lists the transcoders reachable from the command line.
var formats = []string{"json", "yaml", "cbor", "msgpack", "protobuf"}

func formatCodec(name string) (codec.Codec[bencode.Value], error) {
	switch name {
	case "json":
		return codec.JSON{}, nil
	case "yaml":
		return codec.YAML{}, nil
	case "cbor":
		return codec.MustCBOR(true), nil
	case "msgpack":
		return codec.Msgpack{}, nil
	case "protobuf":
		return codec.Protobuf{}, nil
	}
	return nil, fmt.Errorf("unknown format %q, the possible values are %v", name, formats)
}

func newDumpCmd(a *app) *cobra.Command {
	var format string
	var indent bool
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Decode Bencode and print it in another format",
		Example: `  bencode dump ubuntu.torrent --format yaml
  cat data.bin | bencode dump --format cbor > data.cbor`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := formatCodec(format)
			if err != nil {
				return err
			}
			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := a.decoder().Decode(in)
			if err != nil {
				return err
			}
			b, err := out.Encode(v)
			if err != nil {
				return fmt.Errorf("encode %s: %w", format, err)
			}
			if format == "json" {
				if indent {
					var buf []byte
					if buf, err = json.MarshalIndent(json.RawMessage(b), "", "  "); err != nil {
						return err
					}
					b = buf
				}
				b = append(b, '\n')
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", fmt.Sprintf("output format, one of %v", formats))
	cmd.Flags().BoolVar(&indent, "indent", false, "indent JSON output")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Encode JSON, YAML, CBOR, MessagePack or protobuf input as canonical Bencode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := formatCodec(from)
			if err != nil {
				return err
			}
			b, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			if limit := a.v.GetInt("max-size"); limit > 0 {
				in = codec.Limit[bencode.Value]{Inner: in, MaxDecode: limit}
			}
			v, err := in.Decode(b)
			if err != nil {
				return fmt.Errorf("decode %s: %w", from, err)
			}
			_, err = cmd.OutOrStdout().Write(bencode.Encode(v))
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "json", fmt.Sprintf("input format, one of %v", formats))
	return cmd
}
