// Package export writes a project's generated shots and narration to a
// Final Cut Pro FCPXML timeline.
package export

import (
	"crypto/md5"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

type FCPXML struct {
	XMLName   xml.Name  `xml:"fcpxml"`
	Version   string    `xml:"version,attr"`
	Resources Resources `xml:"resources"`
	Library   Library   `xml:"library"`
}

type Resources struct {
	Formats []Format `xml:"format"`
	Assets  []Asset  `xml:"asset"`
}

type Format struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr"`
	FrameDuration string `xml:"frameDuration,attr,omitempty"`
	Width         string `xml:"width,attr"`
	Height        string `xml:"height,attr"`
	ColorSpace    string `xml:"colorSpace,attr"`
}

type Asset struct {
	ID            string   `xml:"id,attr"`
	Name          string   `xml:"name,attr"`
	UID           string   `xml:"uid,attr"`
	Start         string   `xml:"start,attr"`
	Duration      string   `xml:"duration,attr"`
	HasVideo      string   `xml:"hasVideo,attr,omitempty"`
	HasAudio      string   `xml:"hasAudio,attr,omitempty"`
	Format        string   `xml:"format,attr,omitempty"`
	AudioSources  string   `xml:"audioSources,attr,omitempty"`
	AudioChannels string   `xml:"audioChannels,attr,omitempty"`
	MediaRep      MediaRep `xml:"media-rep"`
}

type MediaRep struct {
	Kind string `xml:"kind,attr"`
	Sig  string `xml:"sig,attr"`
	Src  string `xml:"src,attr"`
}

type Library struct {
	Events []Event `xml:"event"`
}

type Event struct {
	Name     string    `xml:"name,attr"`
	Projects []Project `xml:"project"`
}

type Project struct {
	Name      string     `xml:"name,attr"`
	Sequences []Sequence `xml:"sequence"`
}

type Sequence struct {
	Format      string `xml:"format,attr"`
	Duration    string `xml:"duration,attr"`
	TCStart     string `xml:"tcStart,attr"`
	TCFormat    string `xml:"tcFormat,attr"`
	AudioLayout string `xml:"audioLayout,attr"`
	AudioRate   string `xml:"audioRate,attr"`
	Spine       Spine  `xml:"spine"`
}

type Spine struct {
	Videos     []Video     `xml:"video"`
	AssetClips []AssetClip `xml:"asset-clip"`
}

// Video is a still image on the spine; narration rides in a nested
// asset-clip on a lower lane.
type Video struct {
	Ref        string      `xml:"ref,attr"`
	Offset     string      `xml:"offset,attr"`
	Name       string      `xml:"name,attr"`
	Start      string      `xml:"start,attr,omitempty"`
	Duration   string      `xml:"duration,attr"`
	AssetClips []AssetClip `xml:"asset-clip"`
}

type AssetClip struct {
	Ref      string `xml:"ref,attr"`
	Lane     string `xml:"lane,attr,omitempty"`
	Offset   string `xml:"offset,attr"`
	Name     string `xml:"name,attr"`
	Duration string `xml:"duration,attr"`
}

// WriteFile serializes the document with the FCPXML doctype header.
func (f *FCPXML) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %v", err)
	}
	defer out.Close()
	return f.write(out)
}

func (f *FCPXML) write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header+"<!DOCTYPE fcpxml>\n\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode fcpxml: %v", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// mediaUID derives an FCP-style uppercase hex UID from file contents.
func mediaUID(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", hash.Sum(nil)), nil
}
