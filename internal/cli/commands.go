package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"djvu-viewer/internal/cache"
	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/media"

	"github.com/spf13/cobra"
)

// session holds one file and the handler that answers queries about it.
type session struct {
	docs *media.Handler
	file *media.File
}

func openSession(opts *Options, path string) (*session, error) {
	file, err := media.OpenFile(path)
	if err != nil {
		return nil, err
	}
	extractor := media.NewExtractor(media.ExtractorConfig{
		DjvudumpPath: opts.DjvudumpPath,
		DjvutxtPath:  opts.DjvutxtPath,
		Timeout:      opts.Timeout,
	})
	if opts.Runner != nil {
		extractor = extractor.WithRunner(opts.Runner)
	}
	docs := media.NewHandler(media.NewMemoryStore(), extractor, cache.NewMemoryCache(), cache.DefaultPolicy())
	return &session{docs: docs, file: file}, nil
}

// failure returns the stored extraction error of the session's file, if any.
func (s *session) failure(ctx context.Context) error {
	blob, err := s.docs.Metadata(ctx, s.file)
	if err != nil {
		return err
	}
	w, err := djvu.DecodeWrapper(blob)
	if err != nil {
		return nil
	}
	if msg, failed := w.Failure(); failed {
		return fmt.Errorf("extraction failed: %s", msg)
	}
	return nil
}

// explain replaces missing or invalid metadata errors with the extraction
// failure behind them, when there is one.
func (s *session) explain(ctx context.Context, err error) error {
	if errors.Is(err, djvu.ErrMissingData) || errors.Is(err, djvu.ErrInvalid) {
		if ferr := s.failure(ctx); ferr != nil {
			return ferr
		}
	}
	return err
}

func parsePage(arg string) (int, error) {
	page, err := strconv.Atoi(arg)
	if err != nil || !media.ValidateParam("page", page) {
		return 0, fmt.Errorf("invalid page %q: pages are numbered from 1", arg)
	}
	return page, nil
}

type pagesResult struct {
	File string `json:"file" yaml:"file"`
	SHA  string `json:"sha" yaml:"sha"`
	djvu.DimensionInfo `yaml:",inline"`
}

func newPagesCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "pages FILE",
		Short: "Print the page count and the size of every page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(opts, args[0])
			if err != nil {
				return err
			}
			info, err := s.docs.DimensionInfo(ctx, s.file)
			if err != nil {
				return s.explain(ctx, err)
			}

			result := pagesResult{File: args[0], SHA: s.file.SHA(), DimensionInfo: *info}
			return render(cmd.OutOrStdout(), opts.Output, result, func(w io.Writer) error {
				fmt.Fprintf(w, "%s: %d pages\n", args[0], info.PageCount)
				for i, dims := range info.DimensionsByPage {
					if dims == nil {
						fmt.Fprintf(w, "  page %d: unknown size\n", i+1)
						continue
					}
					fmt.Fprintf(w, "  page %d: %dx%d\n", i+1, dims.Width, dims.Height)
				}
				return nil
			})
		},
	}
}

type pageResult struct {
	Page       int    `json:"page" yaml:"page"`
	Width      int    `json:"width" yaml:"width"`
	Height     int    `json:"height" yaml:"height"`
	Rendition  string `json:"rendition,omitempty" yaml:"rendition,omitempty"`
	PageWidth  int    `json:"pageWidth" yaml:"pageWidth"`
	PageHeight int    `json:"pageHeight" yaml:"pageHeight"`
}

func newPageCommand(opts *Options) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "page FILE N",
		Short: "Print the size of page N, optionally scaled to --width",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := parsePage(args[1])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("width") && !media.ValidateParam("width", width) {
				return fmt.Errorf("invalid width %d", width)
			}

			ctx := cmd.Context()
			s, err := openSession(opts, args[0])
			if err != nil {
				return err
			}
			dims, err := s.docs.PageDimensions(ctx, s.file, page)
			if err != nil {
				return s.explain(ctx, err)
			}

			scaled := media.ScaleToWidth(dims, width)
			result := pageResult{
				Page:       page,
				Width:      scaled.Width,
				Height:     scaled.Height,
				PageWidth:  dims.Width,
				PageHeight: dims.Height,
			}
			if width > 0 {
				result.Rendition, _ = media.ParamString(media.Params{Page: page, Width: width})
			}
			return render(cmd.OutOrStdout(), opts.Output, result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%dx%d\n", result.Width, result.Height)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "Scale the page to this width, keeping the aspect ratio")
	return cmd
}

type textResult struct {
	Page int    `json:"page" yaml:"page"`
	Text string `json:"text" yaml:"text"`
}

func newTextCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "text FILE N",
		Short: "Print the OCR text of page N",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := parsePage(args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openSession(opts, args[0])
			if err != nil {
				return err
			}
			text, err := s.docs.PageText(ctx, s.file, page)
			if err != nil {
				return s.explain(ctx, err)
			}
			return render(cmd.OutOrStdout(), opts.Output, textResult{Page: page, Text: text}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, text)
				return err
			})
		},
	}
}

func newSizeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "size FILE",
		Short: "Print the first page size from the file header, without external tools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := media.ReadImageSize(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Output, info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%dx%d, %d dpi, version %s\n", info.Width, info.Height, info.Resolution, info.Version)
				return err
			})
		},
	}
}

func newXMLCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "xml FILE",
		Short: "Print the combined metadata and text XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(opts, args[0])
			if err != nil {
				return err
			}
			if err := s.failure(ctx); err != nil {
				return err
			}
			blob, err := s.docs.Metadata(ctx, s.file)
			if err != nil {
				return err
			}
			w, err := djvu.DecodeWrapper(blob)
			if err != nil {
				return err
			}
			xml, _ := w.XML()
			_, err = io.WriteString(cmd.OutOrStdout(), xml+"\n")
			return err
		},
	}
}
