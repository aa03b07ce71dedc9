package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go-hep.org/x/hep/groot"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/centfit"
	"github.com/decibelcooper/centfit/fit"
)

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: `+os.Args[0]+` [options] <glaubfit-output-file> <histogram>...

Draws each histogram with its Glauber fit (<histogram>_GLAU) and, when
present, its efficiency (<histogram>_EFFI).

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		prefix  = flag.String("prefix", "fit", "output file prefix")
		format  = flag.String("format", "png", "output format (png, pdf, svg, eps)")
		title   = flag.String("title", "", "plot title (default: the fit title)")
		multMin = flag.Float64("multmin", 0, "lower edge of the fit range to mark")
		multMax = flag.Float64("multmax", 0, "upper edge of the fit range to mark")
		width   = flag.Float64("width", 6, "plot width (inch)")
		height  = flag.Float64("height", 6, "plot height (inch)")
	)
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 2 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	f, err := groot.Open(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	for _, name := range flag.Args()[1:] {
		fp, err := load(f, name)
		if err != nil {
			log.Fatal(err)
		}
		if *title != "" {
			fp.Title = *title
		}
		fp.MultMin, fp.MultMax = *multMin, *multMax

		fname := *prefix + "_" + strings.ReplaceAll(name, "/", "_") + "." + *format
		if err := fp.Save(fname, vg.Length(*width)*vg.Inch, vg.Length(*height)*vg.Inch); err != nil {
			log.Fatal(err)
		}
	}
}

func load(f *groot.File, name string) (centfit.FitPlot, error) {
	data, err := fit.ReadH1D(f, name)
	if err != nil {
		return centfit.FitPlot{}, err
	}
	pred, err := fit.ReadH1D(f, name+"_GLAU")
	if err != nil {
		return centfit.FitPlot{}, err
	}
	fp := centfit.FitPlot{Data: data, Pred: pred}
	fp.Title, _ = pred.Ann["title"].(string)

	if effi, err := fit.ReadH1D(f, name+"_EFFI"); err == nil {
		fp.Effi = effi
	}
	return fp, nil
}
