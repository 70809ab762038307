// Package main provides the kiln CLI for training, evaluating and
// inspecting classifier checkpoints.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiln-ml/kiln/internal/checkpoint"
	"github.com/kiln-ml/kiln/internal/dataset"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/train"
	"github.com/kiln-ml/kiln/internal/viz"
)

var version = "0.3.1"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Kiln - classifier training and checkpointing",
	Long: `Kiln trains feed-forward image classifiers and manages their
checkpoints.

It provides:
  - MLP training on MNIST-format IDX data
  - SGD and Adam optimizers
  - Portable .kiln checkpoints with integrity checksums
  - Training-curve plots`,
	Version: version,
}

// ============================================================================
// Train Command
// ============================================================================

var (
	trainDataDir   string
	trainEpochs    int
	trainBatchSize int
	trainLR        float64
	trainMomentum  float64
	trainOptimizer string
	trainHidden    string
	trainOut       string
	trainCurves    string
	trainLimit     int
	trainSeed      int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a classifier on MNIST-format data",
	RunE: func(cmd *cobra.Command, args []string) error {
		hidden, err := parseHidden(trainHidden)
		if err != nil {
			return err
		}

		trainSet, err := dataset.LoadMNIST(trainDataDir, true, trainLimit)
		if err != nil {
			return err
		}
		testSet, err := dataset.LoadMNIST(trainDataDir, false, trainLimit)
		if err != nil {
			return err
		}

		model, err := nn.NewClassifier(nn.Architecture{
			InputSize:    trainSet.Dim(),
			OutputSize:   10,
			HiddenLayers: hidden,
		})
		if err != nil {
			return err
		}

		var opt optim.Optimizer
		switch trainOptimizer {
		case "sgd":
			opt = optim.NewSGD(model.Parameters(), optim.SGDConfig{
				LR:       trainLR,
				Momentum: trainMomentum,
			})
		case "adam":
			opt = optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: trainLR})
		default:
			return fmt.Errorf("unknown optimizer %q (want sgd or adam)", trainOptimizer)
		}

		session := train.NewSession(model, opt)
		session.Log = cmd.OutOrStdout()

		loader := dataset.NewLoader(trainSet, trainBatchSize, true, trainSeed)
		testLoader := dataset.NewLoader(testSet, trainBatchSize, false, 0)

		for epoch := 0; epoch < trainEpochs; epoch++ {
			session.TrainEpoch(loader)
		}

		loss, acc := session.Evaluate(testLoader)
		fmt.Fprintf(cmd.OutOrStdout(), "test: loss=%.4f acc=%.2f%%\n", loss, acc*100)

		if err := session.Checkpoint(trainOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved checkpoint to %s\n", trainOut)

		if trainCurves != "" {
			if err := viz.SaveCurves(session.History, trainCurves); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved training curves to %s\n", trainCurves)
		}
		return nil
	},
}

// ============================================================================
// Eval Command
// ============================================================================

var (
	evalDataDir   string
	evalBatchSize int
	evalLimit     int
)

var evalCmd = &cobra.Command{
	Use:   "eval <checkpoint>",
	Short: "Evaluate a checkpoint on the MNIST test split",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := checkpoint.Load(args[0])
		if err != nil {
			return err
		}

		testSet, err := dataset.LoadMNIST(evalDataDir, false, evalLimit)
		if err != nil {
			return err
		}

		session := train.NewSession(model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}))
		loader := dataset.NewLoader(testSet, evalBatchSize, false, 0)
		loss, acc := session.Evaluate(loader)
		fmt.Fprintf(cmd.OutOrStdout(), "test: loss=%.4f acc=%.2f%%\n", loss, acc*100)
		return nil
	},
}

// ============================================================================
// Inspect Command
// ============================================================================

var inspectCmd = &cobra.Command{
	Use:   "inspect <checkpoint>",
	Short: "Print the architecture and tensor index of a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := serialization.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		h := reader.Header()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "format version: %d\n", h.FormatVersion)
		fmt.Fprintf(out, "written by:     kiln %s\n", h.KilnVersion)
		if !h.CreatedAt.IsZero() {
			fmt.Fprintf(out, "created at:     %s\n", h.CreatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(out, "architecture:   input=%d output=%d hidden=%v\n",
			h.InputSize, h.OutputSize, h.HiddenLayers)
		fmt.Fprintf(out, "tensors:        %d\n", len(h.StateDict))
		for _, tm := range h.StateDict {
			fmt.Fprintf(out, "  %-28s %-8s %v (%d bytes)\n", tm.Name, tm.DType, tm.Shape, tm.Size)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kiln %s\n", version)
	},
}

func parseHidden(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	hidden := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid hidden layer size %q", p)
		}
		hidden = append(hidden, n)
	}
	if len(hidden) == 0 {
		return nil, fmt.Errorf("no hidden layer sizes given")
	}
	return hidden, nil
}

func init() {
	trainCmd.Flags().StringVar(&trainDataDir, "data", "data/mnist", "directory holding the IDX files")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 10, "number of training epochs")
	trainCmd.Flags().IntVar(&trainBatchSize, "batch-size", 64, "mini-batch size")
	trainCmd.Flags().Float64Var(&trainLR, "lr", 0.01, "learning rate")
	trainCmd.Flags().Float64Var(&trainMomentum, "momentum", 0.9, "SGD momentum")
	trainCmd.Flags().StringVar(&trainOptimizer, "optimizer", "sgd", "optimizer (sgd or adam)")
	trainCmd.Flags().StringVar(&trainHidden, "hidden", "512,256,128", "comma-separated hidden layer sizes")
	trainCmd.Flags().StringVar(&trainOut, "out", "model.kiln", "checkpoint output path")
	trainCmd.Flags().StringVar(&trainCurves, "curves", "", "write a training-curve plot to this path")
	trainCmd.Flags().IntVar(&trainLimit, "limit", 0, "cap the number of examples (0 = all)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "shuffle seed")

	evalCmd.Flags().StringVar(&evalDataDir, "data", "data/mnist", "directory holding the IDX files")
	evalCmd.Flags().IntVar(&evalBatchSize, "batch-size", 64, "mini-batch size")
	evalCmd.Flags().IntVar(&evalLimit, "limit", 0, "cap the number of examples (0 = all)")

	rootCmd.AddCommand(trainCmd, evalCmd, inspectCmd, versionCmd)
}
