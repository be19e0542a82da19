// Command constrain is the CLI surrounding the constrained-decoding engine:
// compile a regex/JSON-Schema to a token-level Index, inspect its
// transitions, drive a Guide interactively, watch a schema file for
// changes, or run an end-to-end ONNX generation demo. Structure (root +
// PersistentFlags, a resolved ORT shared-library path probed relative to
// the executable, a best-effort .constrain.toml read before flag parsing)
// is grounded on the teacher's cmd/sift/main.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/screenager/constrain/fsmindex"
	"github.com/screenager/constrain/guide"
	"github.com/screenager/constrain/internal/config"
	"github.com/screenager/constrain/internal/onnxhost"
	"github.com/screenager/constrain/internal/tokenizer"
	"github.com/screenager/constrain/internal/tui"
	"github.com/screenager/constrain/internal/watcher"
	"github.com/screenager/constrain/logits"
	"github.com/screenager/constrain/schema"
	"github.com/screenager/constrain/tensor"
)

func main() {
	root := &cobra.Command{
		Use:   "constrain",
		Short: "Regex/JSON-Schema constrained decoding for LLM token generation",
		Long:  "constrain — compile a schema or regex to a token-level FSM and mask a model's logits against it.",
	}

	base := config.Default()
	if cfg, err := config.Load(".constrain.toml", base); err == nil {
		base = cfg
	}

	var tokenizerPath string
	var eosToken string
	var ortLib string
	var threads int
	var maxRollback int
	root.PersistentFlags().StringVar(&tokenizerPath, "tokenizer", "", "path to a HuggingFace tokenizer.json")
	root.PersistentFlags().StringVar(&eosToken, "eos-token", base.EOSToken, "end-of-sequence token text")
	root.PersistentFlags().StringVar(&ortLib, "ort-lib", base.OrtLib, "path to onnxruntime.so (auto-detected if empty)")
	root.PersistentFlags().IntVar(&threads, "threads", base.Threads, "ONNX intra-op thread count (0 = auto)")
	root.PersistentFlags().IntVar(&maxRollback, "max-rollback", base.MaxRollback, "guide rollback ring buffer depth")

	resolveOrtLib := func(flag string) string {
		if flag != "" {
			return flag
		}
		if exe, err := os.Executable(); err == nil {
			candidate := filepath.Join(filepath.Dir(exe), "lib", "onnxruntime.so")
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		return ""
	}

	loadVocab := func() (*tokenizer.Tokenizer, error) {
		if tokenizerPath == "" {
			return nil, fmt.Errorf("--tokenizer is required")
		}
		fmt.Fprint(os.Stderr, "Loading tokenizer… ")
		tok, err := tokenizer.Load(tokenizerPath, eosToken)
		if err != nil {
			fmt.Fprintln(os.Stderr, "")
			return nil, err
		}
		fmt.Fprintln(os.Stderr, "ready.")
		return tok, nil
	}

	// ---- constrain compile <regex> ----------------------------------------
	var fromSchema bool
	compileCmd := &cobra.Command{
		Use:   "compile <pattern>",
		Short: "Compile a regex or JSON-Schema file to its canonical regex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fromSchema {
				fmt.Println(args[0])
				return nil
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			regex, err := schema.FromSchema(raw, base.SchemaOptions())
			if err != nil {
				return err
			}
			fmt.Println(regex)
			return nil
		},
	}
	compileCmd.Flags().BoolVar(&fromSchema, "schema", false, "treat the argument as a path to a JSON-Schema document")
	root.AddCommand(compileCmd)

	// ---- constrain index <regex> -------------------------------------------
	var dumpTransitions bool
	indexCmd := &cobra.Command{
		Use:   "index <regex>",
		Short: "Build a token-level Index from a regex and report its size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := loadVocab()
			if err != nil {
				return err
			}
			defer tok.Close()

			idx, err := fsmindex.BuildMemoized(args[0], tok.Vocabulary())
			if err != nil {
				return err
			}
			if dumpTransitions || os.Getenv("CONSTRAIN_DEBUG") == "1" {
				pp.Println(idx.Transitions())
			}
			fmt.Printf("states: %d  final: %d\n", idx.NumStates(), len(idx.FinalStates()))
			return nil
		},
	}
	indexCmd.Flags().BoolVar(&dumpTransitions, "dump-transitions", false, "pretty-print every state's transition table")
	root.AddCommand(indexCmd)

	// ---- constrain guide <regex> --------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "guide <regex>",
		Short: "Interactively drive a Guide over a compiled regex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := loadVocab()
			if err != nil {
				return err
			}
			defer tok.Close()

			idx, err := fsmindex.BuildMemoized(args[0], tok.Vocabulary())
			if err != nil {
				return err
			}
			g := guide.New(idx, guide.Options{MaxRollback: maxRollback})
			model := tui.New(g, tok.Vocabulary())
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	})

	// ---- constrain watch <path> ---------------------------------------------
	var watchSchema bool
	watchCmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Watch a regex or schema file and rebuild its Index on change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := loadVocab()
			if err != nil {
				return err
			}
			defer tok.Close()

			source := watcher.SourceRegex
			if watchSchema {
				source = watcher.SourceSchema
			}
			w, err := watcher.New(args[0], source, base.SchemaOptions(), tok.Vocabulary())
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "[watch] %s — %d states\n", args[0], w.Current().NumStates())

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			done := make(chan struct{})
			go func() {
				<-ctx.Done()
				close(done)
			}()
			return w.Watch(done)
		},
	}
	watchCmd.Flags().BoolVar(&watchSchema, "schema", false, "treat the watched path as a JSON-Schema document")
	root.AddCommand(watchCmd)

	// ---- constrain generate <prompt> -----------------------------------------
	var modelPath string
	var maxNewTokens int
	var regexArg string
	generateCmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Run a constrained end-to-end ONNX causal-LM generation demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := loadVocab()
			if err != nil {
				return err
			}
			defer tok.Close()

			// onnxhost.Host masks every step's logits as the tensor type its own
			// ONNX session produces, so the processor backing it must be the
			// matching backend rather than the CPU-only default used elsewhere.
			proc, err := logits.NewRegexProcessor(regexArg, tok.Vocabulary(), tensor.ORTBackend{}, maxRollback)
			if err != nil {
				return err
			}

			host, err := onnxhost.New(modelPath, tok, onnxhost.Options{
				OrtLibPath: resolveOrtLib(ortLib),
				NumThreads: threads,
			})
			if err != nil {
				return err
			}
			defer host.Close()

			ids, err := host.Generate(args[0], proc, maxNewTokens)
			if err != nil {
				return err
			}
			fmt.Println(tok.Decode(ids, true))
			return nil
		},
	}
	generateCmd.Flags().StringVar(&modelPath, "model", "", "path to a causal-LM ONNX model")
	generateCmd.Flags().StringVar(&regexArg, "regex", "", "regex constraining generation")
	generateCmd.Flags().IntVar(&maxNewTokens, "max-new-tokens", 64, "maximum tokens to generate")
	root.AddCommand(generateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
