package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ocrrename/internal/config"
)

// fakeTesseract writes an executable shell script standing in for tesseract.
func fakeTesseract(t *testing.T, script string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p := filepath.Join(t.TempDir(), "tesseract")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return p
}

func TestResult_Empty(t *testing.T) {
	assert.True(t, Result{}.Empty())
	assert.True(t, Result{Text: " \n\t"}.Empty())
	assert.False(t, Result{Text: "Invoice"}.Empty())
}

func TestTesseract_Args(t *testing.T) {
	eng := NewTesseract(Options{Language: "eng+deu", PageSegMode: 6})
	assert.Equal(t, []string{"scan.png", "/tmp/out", "-l", "eng+deu", "--psm", "6", "txt", "tsv"}, eng.Args("scan.png", "/tmp/out"))

	eng = NewTesseract(Options{PageSegMode: 3, TessdataDir: "/opt/tessdata"})
	assert.Equal(t, []string{"a.png", "/tmp/out", "-l", "eng", "--psm", "3", "--tessdata-dir", "/opt/tessdata", "txt", "tsv"}, eng.Args("a.png", "/tmp/out"))
}

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   Kind
	}{
		{"missing language", "Error opening data file /usr/share/tessdata/xyz.traineddata\nFailed loading language 'xyz'", KindLanguageMissing},
		{"bad image", "Error in pixReadStream: Unknown format: no pix returned\nError during processing.", KindUnreadableImage},
		{"unreadable", "Image file broken.png cannot be read!", KindUnreadableImage},
		{"other", "Segmentation fault (core dumped)", KindFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStderr(tt.stderr))
		})
	}
}

func TestError_Is(t *testing.T) {
	var err error = &Error{Kind: KindLanguageMissing, Engine: "tesseract", Path: "a.png", Err: errors.New("x")}
	assert.ErrorIs(t, err, ErrLanguageMissing)
	assert.NotErrorIs(t, err, ErrUnreadableImage)

	var oe *Error
	require.ErrorAs(t, fmt.Errorf("wrap: %w", err), &oe)
	assert.Equal(t, "tesseract", oe.Engine)
}

func TestTesseract_Recognize(t *testing.T) {
	cmd := fakeTesseract(t, `printf 'Invoice 2024-01\r\nACME Corp\n\f'`)
	eng := NewTesseract(Options{Command: cmd})

	res, err := eng.Recognize(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "Invoice 2024-01\nACME Corp", res.Text)
	assert.Equal(t, "tesseract", res.Engine)
	assert.Equal(t, -1.0, res.Confidence)
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t10\t10\t300\t30\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t120\t30\t90.5\tInvoice\n" +
	"5\t1\t1\t1\t1\t2\t140\t10\t80\t30\t80.5\t2024-01\n" +
	"5\t1\t1\t1\t1\t3\t230\t10\t10\t30\t95\t \n"

func TestTesseract_RecognizeReadsOutputFiles(t *testing.T) {
	tsv := filepath.Join(t.TempDir(), "words.tsv")
	require.NoError(t, os.WriteFile(tsv, []byte(sampleTSV), 0o644))
	cmd := fakeTesseract(t, `printf 'Invoice 2024-01\n\f' > "$2.txt"; cp "`+tsv+`" "$2.tsv"`)

	res, err := NewTesseract(Options{Command: cmd}).Recognize(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "Invoice 2024-01", res.Text)
	assert.InDelta(t, 85.5, res.Confidence, 0.001)
}

func TestMeanWordConfidence(t *testing.T) {
	assert.InDelta(t, 85.5, MeanWordConfidence(sampleTSV), 0.001)
	assert.Equal(t, -1.0, MeanWordConfidence(""))
	assert.Equal(t, -1.0, MeanWordConfidence("level\tconf\ttext\n1\t-1\t\n"), "no word rows")
	assert.Equal(t, -1.0, MeanWordConfidence("garbage\n5\t90\tword\n"), "no header")
	assert.InDelta(t, 70.0, MeanWordConfidence("level\tconf\ttext\r\n5\t70\tTotal\r\n5\tx\tbad\r\n"), 0.001)
}

func TestTesseract_RecognizeEmpty(t *testing.T) {
	cmd := fakeTesseract(t, `printf '   \n\f'`)
	res, err := NewTesseract(Options{Command: cmd}).Recognize(context.Background(), "blank.png")
	require.NoError(t, err, "no text is not an error")
	assert.True(t, res.Empty())
}

func TestTesseract_RecognizeFailure(t *testing.T) {
	cmd := fakeTesseract(t, `echo "Error in pixReadStream: Unknown format" >&2; exit 1`)
	_, err := NewTesseract(Options{Command: cmd}).Recognize(context.Background(), "broken.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableImage)
	assert.Contains(t, err.Error(), "exit 1")
}

func TestTesseract_Missing(t *testing.T) {
	eng := NewTesseract(Options{Command: filepath.Join(t.TempDir(), "tesseract")})
	_, err := eng.Recognize(context.Background(), "scan.png")
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestListLanguages(t *testing.T) {
	cmd := fakeTesseract(t, `echo 'List of available languages in "/usr/share/tessdata/" (3):'; echo eng; echo osd; echo deu >&2`)
	langs, err := ListLanguages(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "osd", "deu"}, langs)
}

func TestMissingLanguages(t *testing.T) {
	avail := []string{"eng", "osd", "deu"}
	assert.Empty(t, MissingLanguages("eng", avail))
	assert.Empty(t, MissingLanguages("eng+deu", avail))
	assert.Equal(t, []string{"fra"}, MissingLanguages("eng+fra", avail))
}

func TestVersion(t *testing.T) {
	cmd := fakeTesseract(t, `echo "tesseract 5.3.4"; echo " leptonica-1.84.1"`)
	v, err := Version(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "tesseract 5.3.4", v)
}

func TestNew_Tesseract(t *testing.T) {
	cfg := config.DefaultConfig().OCR
	eng, err := New(cfg)
	require.NoError(t, err)
	defer eng.Close()
	assert.Equal(t, "tesseract", eng.Name())
}

func TestTesseract_Real(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
	v, err := Version(context.Background(), "tesseract")
	require.NoError(t, err)
	assert.Contains(t, v, "tesseract")
}
