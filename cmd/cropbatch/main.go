// Command cropbatch applies a crop batch described in a JSON file to a
// folder without starting the web interface.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"cropfolder/internal/config"
	"cropfolder/internal/logger"
	"cropfolder/internal/model"
	"cropfolder/internal/service/crop"
	"cropfolder/internal/service/imageproc"
	"cropfolder/internal/service/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s <folder> <batch.json>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(cfg, flag.Arg(0), flag.Arg(1), os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

// run applies the batch file to folderPath. Saved paths go to stdout and the
// summary goes to stderr.
func run(cfg *config.Config, folderPath, batchPath string, stdout, stderr io.Writer) error {
	cfg.TargetFolder = folderPath
	if err := cfg.Validate(); err != nil {
		return err
	}

	batch, err := readBatch(batchPath)
	if err != nil {
		return err
	}

	folder := storage.NewFolder(cfg.TargetFolder, cfg.OutputDirectory)
	if _, err := folder.EnsureOutputDir(); err != nil {
		return err
	}
	if !storage.IsImageFile(batch.Filename, cfg.ImageExtensions) {
		return fmt.Errorf("%s is not an image file", batch.Filename)
	}

	processor := imageproc.NewProcessor(imageproc.Options{
		JPEGQuality: cfg.JPEGQuality,
		WebPQuality: cfg.WebPQuality,
	})
	cropper := crop.NewCropper(processor, folder, logger.NewWriterLogger(stderr))

	result, err := cropper.CropBatch(batch)
	if err != nil {
		return fmt.Errorf("crop failed: %w", err)
	}

	for _, name := range result.Saved {
		fmt.Fprintln(stdout, folder.OutputPath(name))
	}
	for _, skipped := range result.Skipped {
		fmt.Fprintf(stderr, "skipped crop %d (%s): %v\n", skipped.Position+1, skipped.Request, skipped.Reason)
	}
	fmt.Fprintln(stderr, result.Message(folder.OutputName()))
	return nil
}

func readBatch(path string) (model.CropBatch, error) {
	var batch model.CropBatch

	data, err := os.ReadFile(path)
	if err != nil {
		return batch, fmt.Errorf("read batch: %w", err)
	}
	if err := json.Unmarshal(data, &batch); err != nil {
		return batch, fmt.Errorf("parse batch %s: %w", path, err)
	}
	return batch, nil
}
