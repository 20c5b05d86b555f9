// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ostafen/gifdec/pkg/gif"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

func DefineInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "info <file>",
		Short:        "Print file-wide GIF metadata",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunInfo,
	}

	cmd.Flags().Bool("json", false, "emit metadata as JSON")
	return cmd
}

type fileInfo struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Images  int    `json:"images"`
	Looped  bool   `json:"looped"`
	Comment string `json:"comment,omitempty"`
}

func RunInfo(cmd *cobra.Command, args []string) error {
	d, err := gif.Open(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	fp, err := d.FileParameters()
	if err != nil {
		return err
	}

	width, height := d.Size()
	info := fileInfo{
		Width:   width,
		Height:  height,
		Images:  fp.Images,
		Looped:  fp.Looped,
		Comment: fp.Comment,
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		buf, err := json.Marshal(info)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(pretty.Pretty(buf))
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Screen\t%dx%d\n", info.Width, info.Height)
	fmt.Fprintf(w, "Images\t%d\n", info.Images)
	fmt.Fprintf(w, "Looped\t%v\n", info.Looped)
	if fp.HasComment {
		fmt.Fprintf(w, "Comment\t%s\n", fp.Comment)
	}
	return w.Flush()
}
