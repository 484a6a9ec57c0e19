package video

import (
	"fmt"
	"image"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// CaptureSource liest Frames über OpenCV von einer Kamera, einer Datei oder
// einem Stream. Die Ressourcen gehören der Verarbeitungsschleife und werden
// über Close freigegeben.
type CaptureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	source  string
}

// Open öffnet die Videoquelle. Source ist ein Geräteindex ("0"), ein
// Dateipfad oder eine URL. Ein Öffnungsfehler ist für den Aufrufer fatal.
func Open(source string) (*CaptureSource, error) {
	var capture *gocv.VideoCapture
	var err error

	if deviceID, convErr := strconv.Atoi(source); convErr == nil {
		capture, err = gocv.OpenVideoCapture(deviceID)
	} else {
		capture, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open video source %q: %w", source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("cannot open video source %q", source)
	}

	log.Infof("Video source opened: %s", source)
	return &CaptureSource{
		capture: capture,
		mat:     gocv.NewMat(),
		source:  source,
	}, nil
}

// NextFrame liest den nächsten Frame. Ok ist false bei Stream-Ende oder
// wenn die Quelle keinen Frame mehr liefert; das ist reguläres Ende, kein
// Fehler.
func (s *CaptureSource) NextFrame() (image.Image, bool) {
	if !s.capture.Read(&s.mat) || s.mat.Empty() {
		return nil, false
	}

	img, err := s.mat.ToImage()
	if err != nil {
		log.Errorf("Failed to convert frame to image: %v", err)
		return nil, false
	}
	return img, true
}

// Close gibt die Capture-Ressourcen frei
func (s *CaptureSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
