// Package train wires a model and the dataset loaders into the framework's
// optimization loop: SGD steps over shuffled minibatches, per-epoch
// validation, and a state-dict checkpoint at the end.
package train

import (
	"errors"
	"fmt"
	"time"

	torch "github.com/wangkuiyi/gotorch"
	F "github.com/wangkuiyi/gotorch/nn/functional"
	"github.com/wangkuiyi/gotorch/vision/imageloader"

	"goresnet/imagenet"
	"goresnet/models"
	"goresnet/util"
)

// Config captures the knobs of one training run.
type Config struct {
	TrainArchive string
	ValArchive   string
	SavePath     string

	Epochs    int
	BatchSize int
	// BufSize is the loader's shuffle/prefetch buffer, in samples.
	BufSize int

	LR          float64
	Momentum    float64
	WeightDecay float64
	// LRStepEpochs divides the learning rate by 10 every N epochs.
	// Zero disables decay.
	LRStepEpochs int

	Seed     int64
	LogEvery int

	Device    torch.Device
	PinMemory bool
}

// Validate checks the config and fills defaulted fields.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.TrainArchive == "" {
		return errors.New("training archive must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LR <= 0 {
		return fmt.Errorf("learning rate must be > 0 (got %g)", c.LR)
	}
	if c.Momentum < 0 || c.WeightDecay < 0 {
		return errors.New("momentum and weight decay must be >= 0")
	}
	if c.BufSize <= 0 {
		c.BufSize = 4 * c.BatchSize
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return nil
}

// Result records per-epoch aggregates for callers that want them; the loop
// logs the same numbers as it goes.
type Result struct {
	EpochLoss []float64
	ValLoss   []float64
	ValAcc    []float64
}

// Run trains model on cfg.TrainArchive for cfg.Epochs epochs, evaluating on
// cfg.ValArchive after each one, and saves the final weights to
// cfg.SavePath.
func Run(cfg Config, model *models.ResNetModule, vocab map[string]int) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(vocab) == 0 {
		return nil, errors.New("empty label vocabulary")
	}

	model.To(cfg.Device)
	opt := torch.SGD(cfg.LR, cfg.Momentum, 0, cfg.WeightDecay, false)
	opt.AddParameters(model.Parameters())
	defer torch.FinishGC()

	res := &Result{}
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		lr := StepLR(cfg.LR, cfg.LRStepEpochs, epoch)
		opt.SetLR(lr)

		loader, err := imagenet.TrainLoader(cfg.TrainArchive, vocab,
			cfg.BatchSize, cfg.BufSize, cfg.Seed+int64(epoch), cfg.PinMemory)
		if err != nil {
			return nil, fmt.Errorf("open training archive: %w", err)
		}

		model.Train(true)
		summary, err := trainEpoch(cfg, model, opt, loader, epoch, lr)
		if err != nil {
			return nil, err
		}
		res.EpochLoss = append(res.EpochLoss, summary.Mean())

		valLoss, valAcc := 0.0, 0.0
		if cfg.ValArchive != "" {
			valLoader, err := imagenet.ValLoader(cfg.ValArchive, vocab,
				cfg.BatchSize, cfg.BufSize, cfg.Seed, cfg.PinMemory)
			if err != nil {
				return nil, fmt.Errorf("open validation archive: %w", err)
			}
			// Eval mode: BatchNorm must use the running statistics, and
			// validation batches must not mutate them.
			model.Train(false)
			valLoss, valAcc = evaluate(cfg, model, valLoader)
			model.Train(true)
			util.Logger.Printf("epoch=%d val_loss=%.4f val_acc=%.2f%%", epoch, valLoss, 100*valAcc)
		}
		res.ValLoss = append(res.ValLoss, valLoss)
		res.ValAcc = append(res.ValAcc, valAcc)
		util.Curve.Record(epoch, summary.Mean(), valLoss, valAcc)
	}

	if cfg.SavePath != "" {
		util.Logger.Printf("saving checkpoint to %s", cfg.SavePath)
		if err := SaveStateDict(model, cfg.SavePath); err != nil {
			return nil, err
		}
		model.To(cfg.Device)
	}
	return res, nil
}

func trainEpoch(cfg Config, model *models.ResNetModule, opt torch.Optimizer,
	loader *imageloader.ImageLoader, epoch int, lr float64) (*EpochSummary, error) {
	var window Window
	summary := &EpochSummary{}
	epochStart := time.Now()
	samples := 0
	step := 0

	dataStart := time.Now()
	for loader.Scan() {
		torch.GC()
		data, label := loader.Minibatch()
		dataTime := time.Since(dataStart)

		computeStart := time.Now()
		opt.ZeroGrad()
		pred := model.Forward(data.To(cfg.Device, data.Dtype()))
		loss := F.CrossEntropy(pred, label.To(cfg.Device, label.Dtype()), torch.Tensor{}, -100, "mean")
		loss.Backward()
		opt.Step()
		lossVal := float64(loss.Item().(float32))
		computeTime := time.Since(computeStart)

		batch := int(data.Shape()[0])
		samples += batch
		window.Record(batch, dataTime, computeTime, lossVal)
		summary.Add(lossVal)
		step++
		if step%cfg.LogEvery == 0 {
			snap := window.Snapshot()
			util.Logger.Printf("epoch=%d step=%d lr=%g loss=%.4f images_per_sec=%.1f data_ms=%.2f compute_ms=%.2f",
				epoch, step, lr, snap.LastLoss, snap.ImagesPerSec, snap.AvgDataMS, snap.AvgComputeMS)
		}
		dataStart = time.Now()
	}
	if summary.Steps() == 0 {
		return nil, fmt.Errorf("training archive %s yielded no minibatches", cfg.TrainArchive)
	}

	throughput := float64(samples) / time.Since(epochStart).Seconds()
	util.Logger.Printf("epoch=%d done loss=%.4f (±%.4f) throughput=%.1f samples/sec",
		epoch, summary.Mean(), summary.StdDev(), throughput)
	return summary, nil
}

func evaluate(cfg Config, model *models.ResNetModule, loader *imageloader.ImageLoader) (loss, acc float64) {
	totalLoss := 0.0
	batches := 0
	correct := int64(0)
	samples := 0
	for loader.Scan() {
		torch.GC()
		data, label := loader.Minibatch()
		data = data.To(cfg.Device, data.Dtype())
		label = label.To(cfg.Device, label.Dtype())
		output := model.Forward(data)
		l := F.CrossEntropy(output, label, torch.Tensor{}, -100, "mean")
		pred := output.Argmax(1)
		totalLoss += float64(l.Item().(float32))
		correct += pred.Eq(label.View(pred.Shape()...)).
			Sum(map[string]interface{}{"dim": 0, "keepDim": false}).Item().(int64)
		samples += int(label.Shape()[0])
		batches++
	}
	if batches == 0 || samples == 0 {
		return 0, 0
	}
	return totalLoss / float64(batches), float64(correct) / float64(samples)
}
