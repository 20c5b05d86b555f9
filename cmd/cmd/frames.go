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
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/ostafen/gifdec/pkg/gif"
	"github.com/spf13/cobra"
)

func DefineFramesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "frames <file>",
		Short:        "Decode every frame and print per-frame metadata",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunFrames,
	}

	cmd.Flags().String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")
	return cmd
}

func RunFrames(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	d, err := gif.Open(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tDELAY")

	for {
		params := d.ImageParameters()
		fmt.Fprintf(w, "%d\t%dms\n", params.ImageNo, params.DelayMS)
		logger.Debug("frame decoded", "frame", params.ImageNo, "delay_ms", params.DelayMS)

		more, err := d.NextImage(gif.LoopNever)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	logger.Info("done", "frames", d.ImageParameters().ImageNo)
	return w.Flush()
}
