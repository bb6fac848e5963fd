package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/bencode/codec"
	"github.com/unkn0wn-root/bencode/metainfo"
)

func newInfoCmd(a *app) *cobra.Command {
	var showFiles bool
	cmd := &cobra.Command{
		Use:     "info [file]",
		Short:   "Summarize a .torrent metainfo file",
		Example: `  bencode info ubuntu.torrent --files`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			if limit := a.v.GetInt("max-size"); limit > 0 && len(in) > limit {
				return fmt.Errorf("%w: %d > %d bytes", codec.ErrTooLarge, len(in), limit)
			}
			t, err := metainfo.Parse(in, a.decodeOptions())
			if err != nil {
				return err
			}
			a.log.WithField("infohash", t.InfoHashHex()).Debug("parsed metainfo")

			w := cmd.OutOrStdout()
			renderSummary(w, t)
			if showFiles {
				fmt.Fprintln(w)
				renderFiles(w, t)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showFiles, "files", false, "list the files in the torrent")
	return cmd
}

func sizeString(n uint64) string {
	return fmt.Sprintf("%s (%s bytes)", humanize.IBytes(n), humanize.Comma(int64(n)))
}

func renderSummary(w io.Writer, t *metainfo.Torrent) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	layout := "single file"
	if t.IsMultiFile() {
		layout = fmt.Sprintf("%d files", len(t.Info.Files))
	}
	table.Append([]string{"Name", t.Info.Name})
	table.Append([]string{"Info hash", t.InfoHashHex()})
	if t.Announce != "" {
		table.Append([]string{"Announce", t.Announce})
	}
	for i, tier := range t.AnnounceList {
		table.Append([]string{"Tier " + strconv.Itoa(i), strings.Join(tier, " ")})
	}
	table.Append([]string{"Layout", layout})
	table.Append([]string{"Total size", sizeString(t.TotalLength())})
	table.Append([]string{"Piece length", humanize.IBytes(t.Info.PieceLength)})
	table.Append([]string{"Pieces", humanize.Comma(int64(t.NumPieces()))})
	table.Append([]string{"Private", strconv.FormatBool(t.Info.Private)})
	if t.CreationDate > 0 {
		table.Append([]string{"Created", time.Unix(t.CreationDate, 0).UTC().Format(time.RFC3339)})
	}
	if t.CreatedBy != "" {
		table.Append([]string{"Created by", t.CreatedBy})
	}
	if t.Comment != "" {
		table.Append([]string{"Comment", t.Comment})
	}
	table.Render()
}

func renderFiles(w io.Writer, t *metainfo.Torrent) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Path", "Size"})
	table.SetAutoWrapText(false)
	for _, f := range t.FileList() {
		table.Append([]string{f.DisplayPath(), humanize.IBytes(f.Length)})
	}
	table.SetFooter([]string{"Total", humanize.IBytes(t.TotalLength())})
	table.Render()
}
