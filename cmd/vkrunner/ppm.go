// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// writePPM encodes pixels (tightly packed RGBA8, width*height*4 bytes) as
// a binary (P6) PPM file at path. PPM carries no alpha channel, so the
// image is composited onto a fully-opaque canvas one size at a time with
// draw.Copy - the same conversion path a front-end would need if pixels
// ever arrived at a size other than width x height.
func writePPM(path string, pixels []byte, width, height int) error {
	src := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			src.SetNRGBA(x, y, color.NRGBA{R: pixels[i], G: pixels[i+1], B: pixels[i+2], A: pixels[i+3]})
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Copy(dst, image.Point{}, src, src.Bounds(), draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P6\n%d %d\n255\n", width, height)
	row := make([]byte, width*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := dst.RGBAAt(x, y)
			row[x*3+0] = c.R
			row[x*3+1] = c.G
			row[x*3+2] = c.B
		}
		if _, err := w.Write(row); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return w.Flush()
}
