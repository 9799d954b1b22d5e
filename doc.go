/*
Package redetect is an object re-detection library for tracking-by-detection
pipelines. Every frame is scanned with a dense grid of sliding windows over
several scales and each window goes through a cascade of three classifiers:
a patch variance filter, a random fern ensemble and a nearest neighbour
classifier working on normalized 15x15 patches. The surviving windows are
clustered and, when they agree on a single object, a consensus box is reported.

The classifiers are trained online: the fern posteriors and the exemplar sets
grow from the samples the caller labels, or from the helpers which select them
around a known object box.

The package provides a command line interface which runs the detector over a
sequence of frames. To check the supported commands type:

	$ redetect --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"

		"github.com/esimov/redetect"
	)

	func main() {
		c := redetect.NewCascade(redetect.DefaultParams(), nil)
		c.SetImageSize(640, 480)
		c.SetObjectSize(bb.Dx(), bb.Dy())
		if err := c.Init(); err != nil {
			fmt.Printf("Error initializing the detector: %s", err.Error())
			return
		}
		if err := c.Bootstrap(first, bb); err != nil {
			fmt.Printf("Error training the detector: %s", err.Error())
			return
		}

		for _, f := range frames {
			res := c.Detect(f)
			if res.DetectorBB != nil {
				fmt.Println(*res.DetectorBB)
			}
		}
	}
*/
package redetect
