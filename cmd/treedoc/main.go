package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"treedoc/pkg/treedoc"
)

var (
	verbose bool
	trace   bool
	graphs  bool

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "treedoc",
	Short: "treedoc - incremental syntax tree inspector",
	Long: `treedoc parses source files with tree-sitter grammars and prints the
resulting syntax tree as an s-expression. The watch mode reparses on every
file change, exercising the edit/invalidate/parse lifecycle.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// parseCmd parses one file and prints the tree
var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a source file and print its syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

// watchCmd reparses a file on every change
var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Reparse a source file whenever it changes on disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var (
	languagesOnce sync.Once
	languages     map[string]*sitter.Language
)

// languageFor maps a file extension to its grammar. The registry is built
// once per process.
func languageFor(path string) (*sitter.Language, error) {
	languagesOnce.Do(func() {
		languages = map[string]*sitter.Language{
			".go":  golang.GetLanguage(),
			".js":  javascript.GetLanguage(),
			".jsx": javascript.GetLanguage(),
			".py":  python.GetLanguage(),
			".rs":  rust.GetLanguage(),
			".ts":  typescript.GetLanguage(),
		}
	})
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := languages[ext]
	if !ok {
		return nil, fmt.Errorf("no grammar registered for extension %q", ext)
	}
	return lang, nil
}

// byteSource adapts a byte slice to the pull-based input contract. The CLI
// feeds UTF-8 files, so external units are plain bytes (unit width 1).
type byteSource struct {
	data []byte
}

const chunkSize = 4096

func (s *byteSource) Seek(offset uint32) {}

func (s *byteSource) Read(offset uint32) ([]byte, bool) {
	if int(offset) >= len(s.data) {
		return nil, false
	}
	end := int(offset) + chunkSize
	if end > len(s.data) {
		end = len(s.data)
	}
	return s.data[offset:end], true
}

// openDocument builds a Document for the file: grammar by extension, byte
// oriented unit width, current file contents as input.
func openDocument(path string) (*treedoc.Document, error) {
	lang, err := languageFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc := treedoc.New(treedoc.WithUnitWidth(1), treedoc.WithZapLogger(logger))
	if err := doc.SetLanguage(treedoc.NewLanguage(lang)); err != nil {
		doc.Close()
		return nil, err
	}
	if err := doc.SetInput(&byteSource{data: data}); err != nil {
		doc.Close()
		return nil, err
	}
	if trace {
		doc.SetLogger(func(message string, kind treedoc.LogKind) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", kind, message)
		})
	}
	doc.SetDebugGraphs(graphs)
	return doc, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := doc.Parse(); err != nil {
		return err
	}
	root := doc.RootNode()
	if root == nil {
		return fmt.Errorf("no tree produced")
	}
	fmt.Println(root.String())
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	doc, err := openDocument(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := doc.Parse(); err != nil {
		return err
	}
	printSummary(path, doc)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("watching", zap.String("path", path))
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("reread failed", zap.Error(err))
				continue
			}
			// File changes arrive without edit coordinates, so give up
			// incremental reuse and reparse from scratch.
			if err := doc.SetInput(&byteSource{data: data}); err != nil {
				return err
			}
			doc.Invalidate()
			if err := doc.Parse(); err != nil {
				logger.Warn("reparse failed", zap.Error(err))
				continue
			}
			printSummary(path, doc)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-sigs:
			return nil
		}
	}
}

// printSummary prints one line per reparse: root type, extent, child count.
func printSummary(path string, doc *treedoc.Document) {
	root := doc.RootNode()
	if root == nil {
		return
	}
	typ, _ := root.Type()
	end, _ := root.EndIndex()
	children := root.NamedChildren()
	count := 0
	if children != nil {
		count = children.Len()
	}
	fmt.Printf("%s: (%s) %d units, %d top-level nodes, version %d\n",
		path, typ, end, count, doc.Version())
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "print engine trace events to stderr")
	rootCmd.PersistentFlags().BoolVar(&graphs, "graphs", false, "enable engine debug graphs")
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
