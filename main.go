// Command goresnet trains ResNet-50 / ResNet-152 on ILSVRC2012.
//
// Subcommands:
//
//	goresnet prepare  -src DIR -labels FILE -out train.tar.gz
//	goresnet resnet50  -data train.tar.gz -val val.tar.gz -save resnet50.gob
//	goresnet resnet152 -data train.tar.gz -val val.tar.gz -save resnet152.gob
//	goresnet predict  -load resnet50.gob -labels FILE img.JPEG ...
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	torch "github.com/wangkuiyi/gotorch"
	"github.com/wangkuiyi/gotorch/nn/initializer"

	"goresnet/imagenet"
	"goresnet/models"
	"goresnet/train"
	"goresnet/util"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "resnet50", "resnet152":
		runTrain(os.Args[1], os.Args[2:])
	case "prepare":
		runPrepare(os.Args[2:])
	case "predict":
		runPredict(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <resnet50|resnet152|prepare|predict> [flags]\n", os.Args[0])
	os.Exit(1)
}

func pickDevice() torch.Device {
	if torch.IsCUDAAvailable() {
		log.Println("CUDA is valid")
		return torch.NewDevice("cuda")
	}
	log.Println("No CUDA found; CPU only")
	return torch.NewDevice("cpu")
}

func buildModel(arch string, numClasses int64) *models.ResNetModule {
	if arch == "resnet152" {
		return models.ResNet152(numClasses)
	}
	return models.ResNet50(numClasses)
}

func runTrain(arch string, args []string) {
	cmd := flag.NewFlagSet(arch, flag.ExitOnError)
	data := cmd.String("data", "./data/ilsvrc2012_train.tar.gz", "training archive")
	val := cmd.String("val", "./data/ilsvrc2012_val.tar.gz", "validation archive; empty skips evaluation")
	save := cmd.String("save", "./"+arch+".gob", "checkpoint file")
	lr := cmd.Float64("lr", 0.1, "base learning rate")
	momentum := cmd.Float64("momentum", 0.9, "SGD momentum")
	wd := cmd.Float64("wd", 1e-4, "weight decay")
	lrStep := cmd.Int("lr-step", 30, "divide lr by 10 every N epochs; 0 disables")
	epochs := cmd.Int("epochs", 90, "number of epochs")
	batch := cmd.Int("batch", 32, "minibatch size")
	bufSize := cmd.Int("bufsize", 0, "loader buffer in samples; 0 means 4x batch")
	seed := cmd.Int64("seed", 1, "random seed")
	logEvery := cmd.Int("log-every", 50, "log every N steps")
	logDir := cmd.String("logdir", ".", "directory for log and curve files")
	cmd.Parse(args)

	if err := util.InitLogger(*logDir, arch); err != nil {
		log.Fatal(err)
	}
	if err := util.InitCurve(*logDir, arch); err != nil {
		log.Fatal(err)
	}

	device := pickDevice()
	initializer.ManualSeed(*seed)

	vocab, err := imagenet.Vocabulary(*data)
	if err != nil {
		util.Logger.Fatalf("build label vocabulary: %v", err)
	}
	util.Logger.Printf("arch=%s classes=%d epochs=%d batch=%d lr=%g", arch, len(vocab), *epochs, *batch, *lr)

	model := buildModel(arch, int64(len(vocab)))
	cfg := train.Config{
		TrainArchive: *data,
		ValArchive:   *val,
		SavePath:     *save,
		Epochs:       *epochs,
		BatchSize:    *batch,
		BufSize:      *bufSize,
		LR:           *lr,
		Momentum:     *momentum,
		WeightDecay:  *wd,
		LRStepEpochs: *lrStep,
		Seed:         *seed,
		LogEvery:     *logEvery,
		Device:       device,
		PinMemory:    torch.IsCUDAAvailable(),
	}
	if _, err := train.Run(cfg, model, vocab); err != nil {
		util.Logger.Fatalf("training failed: %v", err)
	}
}

func runPrepare(args []string) {
	cmd := flag.NewFlagSet("prepare", flag.ExitOnError)
	src := cmd.String("src", "", "flat directory of nXXXXXXXX_*.JPEG files")
	labels := cmd.String("labels", "", "synset labels file")
	out := cmd.String("out", "./ilsvrc2012_train.tar.gz", "archive to write")
	maxEdge := cmd.Uint("max-edge", 256, "downscale so the smaller edge is at most this; 0 disables")
	quality := cmd.Int("quality", 90, "JPEG re-encode quality")
	seed := cmd.Int64("seed", 1, "shuffle seed")
	cmd.Parse(args)

	if *src == "" || *labels == "" {
		log.Fatal("prepare: -src and -labels are required")
	}
	stats, err := imagenet.Prepare(imagenet.PrepareOptions{
		SrcDir:     *src,
		LabelsFile: *labels,
		OutPath:    *out,
		MaxEdge:    *maxEdge,
		Quality:    *quality,
		Seed:       *seed,
	})
	if err != nil {
		log.Fatalf("prepare failed: %v", err)
	}
	log.Printf("prepare: wrote %d images to %s (%d skipped)", stats.Written, *out, stats.Skipped)
}
