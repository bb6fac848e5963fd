package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/bencode"
	"github.com/unkn0wn-root/bencode/codec"
)

const envPrefix = "BENCODE"

var longRootCmdDescription = `bencode inspects and converts Bencode data and BitTorrent metainfo files.

Every command reads the file named by its argument, or stdin when the
argument is missing or "-". Flags can also be set through BENCODE_*
environment variables, e.g. BENCODE_MAX_DEPTH=64.
`

// app carries the resolved configuration shared by all subcommands.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
}

func (a *app) decodeOptions() bencode.DecodeOptions {
	return bencode.DecodeOptions{
		Strict:   a.v.GetBool("strict"),
		MaxDepth: a.v.GetInt("max-depth"),
	}
}

// decoder is the bencode codec for input, capped at --max-size bytes.
func (a *app) decoder() codec.Codec[bencode.Value] {
	return codec.Limit[bencode.Value]{
		Inner:     codec.Bencode{Options: a.decodeOptions()},
		MaxDecode: a.v.GetInt("max-size"),
	}
}

func (a *app) readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	var (
		b   []byte
		err error
		src = "stdin"
	)
	if len(args) == 0 || args[0] == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src = args[0]
		b, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"source": src, "bytes": len(b)}).Debug("read input")
	return b, nil
}

// NewRootCmd builds the command tree. Output goes to the command's writers,
// so callers and tests can redirect it.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "bencode",
		Short:         "Inspect, validate and convert Bencode data.",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, cfgFile)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml) with flag defaults")
	pf.BoolP("debug", "d", false, "turn on debug logging")
	pf.Bool("strict", false, "reject non-canonical input (leading zeros, unsorted or duplicate keys, trailing data)")
	pf.Int("max-depth", 0, fmt.Sprintf("maximum nesting depth; 0 means %d, negative means unlimited", bencode.DefaultMaxDepth))
	pf.Int("max-size", 0, "maximum input size in bytes; 0 means unlimited")

	rootCmd.AddCommand(
		newDumpCmd(a),
		newCanonCmd(a),
		newVerifyCmd(a),
		newInfoCmd(a),
		newConvertCmd(a),
	)
	rootCmd.DisableAutoGenTag = true
	return rootCmd
}

func (a *app) init(cmd *cobra.Command, cfgFile string) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if a.v.GetBool("debug") {
		a.log.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Errorf("bencode: %v", err)
		os.Exit(1)
	}
}
