/*
 * This file is part of Loqa Narrator (https://github.com/loqalabs/loqa-narrator).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/loqalabs/loqa-narrator/internal/config"
	"github.com/loqalabs/loqa-narrator/internal/document"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/security"
	"github.com/loqalabs/loqa-narrator/internal/settings"
	"github.com/loqalabs/loqa-narrator/internal/tts"
)

func main() {
	var (
		pdfPath    = flag.String("pdf", "", "Path to the PDF to narrate")
		startPage  = flag.Int("start", 1, "First page to narrate")
		endPage    = flag.Int("end", 0, "Last page to narrate (default: start + 4)")
		voice      = flag.String("voice", "", "Voice name (default from configuration)")
		model      = flag.String("model", "", "Speech model (default from configuration)")
		out        = flag.String("out", "", "Output WAV file (default: <name>_narration.wav)")
		listVoices = flag.Bool("list-voices", false, "List available voices and exit")
		format     = flag.String("format", "table", "Output format for -list-voices: table, json")
	)
	flag.Parse()

	if *listVoices {
		if err := printVoices(*format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *pdfPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -pdf is required\n")
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.InitializeWithConfig(logging.LogConfig{Level: "warn", Format: "console"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	opts := options{
		pdfPath:   *pdfPath,
		startPage: *startPage,
		endPage:   *endPage,
		voice:     *voice,
		model:     *model,
		out:       *out,
	}
	if opts.endPage == 0 {
		opts.endPage = opts.startPage + cfg.Narration.DefaultPageSpan - 1
	}
	if opts.voice == "" {
		opts.voice = cfg.Narration.DefaultVoice
	}
	if opts.model == "" {
		opts.model = cfg.Gemini.Model
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	generator := tts.NewGeminiClient(cfg.Gemini)
	credentials := settings.NewCredentials(nil, cfg.Gemini.APIKey)
	pipeline := narration.NewPipeline(
		narration.NewPackager(generator, credentials, nil, cfg.Gemini.Model),
		narration.WithMinTextLength(cfg.Narration.MinTextLength),
	)

	path, err := run(ctx, pipeline, opts)
	if err != nil {
		if kind := narration.KindOf(err); kind != "" {
			fmt.Fprintf(os.Stderr, "Error (%s): %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Narration written to %s\n", path)
}

type options struct {
	pdfPath   string
	startPage int
	endPage   int
	voice     string
	model     string
	out       string
}

// run narrates the requested pages and writes the container, returning
// the path written
func run(ctx context.Context, pipeline *narration.Pipeline, opts options) (string, error) {
	data, err := os.ReadFile(opts.pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", opts.pdfPath, err)
	}

	doc, err := document.Load(data)
	if err != nil {
		return "", narration.ParseFailure(err)
	}

	voice, err := tts.ParseVoice(opts.voice)
	if err != nil {
		return "", narration.InputError(err.Error())
	}

	name := strings.TrimSuffix(filepath.Base(opts.pdfPath), filepath.Ext(opts.pdfPath))
	result, err := pipeline.Run(ctx, narration.Job{
		Document:     doc,
		DocumentName: name,
		StartPage:    opts.startPage,
		EndPage:      opts.endPage,
		Voice:        voice,
		Model:        opts.model,
		OnStatus: func(s narration.Status) {
			if s.Step != narration.StepError {
				fmt.Fprintf(os.Stderr, "[%s] %s\n", s.Step, s.Message)
			}
		},
	})
	if err != nil {
		return "", err
	}

	path := opts.out
	if path == "" {
		path = security.SanitizeFilename(name + "_narration.wav")
	}
	if err := os.WriteFile(path, result.Container, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(os.Stderr, "%d bytes, %.1fs of audio (%s, %s)\n",
		result.Size(), result.Duration.Seconds(), result.Voice, result.Model)
	return path, nil
}

func printVoices(format string) error {
	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tts.AvailableVoices)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VOICE\tGENDER\tSTYLE\tDESCRIPTION")
	for _, v := range tts.AvailableVoices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Gender, v.Style, v.Description)
	}
	return w.Flush()
}
