//go:build gosseract

package ocr

import (
	"context"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"
)

// gosseractEngine wraps a libtesseract client. The client is not safe for
// concurrent use, so calls are serialized.
type gosseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func newGosseract(opts Options) (Engine, error) {
	client := gosseract.NewClient()
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		client.Close()
		return nil, &Error{Kind: KindLanguageMissing, Engine: "gosseract", Err: eris.Wrap(err, "set language")}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		client.Close()
		return nil, &Error{Kind: KindFailed, Engine: "gosseract", Err: eris.Wrap(err, "set page segmentation mode")}
	}
	if opts.TessdataDir != "" {
		if err := client.SetTessdataPrefix(opts.TessdataDir); err != nil {
			client.Close()
			return nil, &Error{Kind: KindLanguageMissing, Engine: "gosseract", Err: eris.Wrap(err, "set tessdata dir")}
		}
	}
	return &gosseractEngine{client: client}, nil
}

// GosseractCompiled reports whether the gosseract backend is available.
func GosseractCompiled() bool { return true }

func (g *gosseractEngine) Name() string { return "gosseract" }

func (g *gosseractEngine) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

// Recognize runs libtesseract on imagePath. Confidence is the mean word
// confidence.
func (g *gosseractEngine) Recognize(ctx context.Context, imagePath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &Error{Kind: KindFailed, Engine: g.Name(), Path: imagePath, Err: err}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return Result{}, &Error{Kind: KindEngineUnavailable, Engine: g.Name(), Path: imagePath, Err: eris.New("engine closed")}
	}

	if err := g.client.SetImage(imagePath); err != nil {
		return Result{}, &Error{Kind: KindUnreadableImage, Engine: g.Name(), Path: imagePath, Err: eris.Wrap(err, "set image")}
	}
	text, err := g.client.Text()
	if err != nil {
		return Result{Text: "", Confidence: -1, Engine: g.Name()},
			&Error{Kind: ClassifyStderr(err.Error()), Engine: g.Name(), Path: imagePath, Err: eris.Wrap(err, "recognize")}
	}

	conf := -1.0
	if boxes, err := g.client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		conf = sum / float64(len(boxes))
	}
	return Result{Text: normalizeText(text), Confidence: conf, Engine: g.Name()}, nil
}
