package assets

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/conscript/pkg/conscript"
)

// SampleRate is the rate sounds are resampled to when probed.
const SampleRate = 44100

// Sound is a sampled sound effect.
type Sound struct {
	Name      string
	Path      string
	Volume    float64
	Pitch     float64
	Pan       float64
	Muted     bool
	Instances int
	Duration  time.Duration
}

// SoundFont is a parsed SF2 bank used to render music.
type SoundFont struct {
	Name        string
	Path        string
	Bank        string
	Presets     int
	Instruments int
	Font        *meltysynth.SoundFont
}

// Music is a standard MIDI file.
type Music struct {
	Name      string
	Path      string
	Loop      bool
	SoundFont string
	Duration  time.Duration
}

// Sounds registers SOUND, SOUNDFONT and MUSIC.
//
//	SOUND "click", "ui/click.wav", 0.8;
//	SOUND "step", "step.wav", pan:-0.5, instances:4;
//	SOUNDFONT "gm", "GeneralUser-GS.sf2";
//	MUSIC "title", "title.mid", true, "gm";
type Sounds struct{}

// NewSounds creates the sound module.
func NewSounds() *Sounds {
	return &Sounds{}
}

// Register implements conscript.Module.
func (m *Sounds) Register(r *conscript.Runner) error {
	if err := r.AddModeCommand("SOUND", []int{ModeRoot}, m.sound,
		"string name, string path, float volume = 1, float pitch = 0, float pan = 0, bool muted = false, int instances = 1",
	); err != nil {
		return err
	}
	if err := r.AddModeCommand("SOUNDFONT", []int{ModeRoot}, m.soundFont,
		"string name, string path",
	); err != nil {
		return err
	}
	return r.AddModeCommand("MUSIC", []int{ModeRoot}, m.music,
		`string name, string path, bool loop = false, string soundFont = ""`,
	)
}

func (m *Sounds) sound(call *conscript.Call) error {
	s := &Sound{
		Name:      call.Arg("name").Str(),
		Volume:    call.Arg("volume").Float(),
		Pitch:     call.Arg("pitch").Float(),
		Pan:       call.Arg("pan").Float(),
		Muted:     call.Arg("muted").Bool(),
		Instances: call.Arg("instances").Int(),
	}
	if s.Volume < 0 || s.Volume > 1 {
		return call.ParamErrorf(call.Arg("volume"), "volume must be between 0 and 1, got %g", s.Volume)
	}
	if s.Pan < -1 || s.Pan > 1 {
		return call.ParamErrorf(call.Arg("pan"), "pan must be between -1 and 1, got %g", s.Pan)
	}
	if s.Instances < 1 {
		return call.ParamErrorf(call.Arg("instances"), "instances must be at least 1, got %d", s.Instances)
	}

	data, p, err := readContent(call, call.Arg("path").Str())
	if err != nil {
		return err
	}
	s.Path = p
	stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
	if err != nil {
		return &conscript.ContentError{Path: p, Err: fmt.Errorf("invalid WAV file format: %w", err)}
	}
	// 16-bit stereo: 4 bytes per frame
	s.Duration = time.Duration(stream.Length()/4) * time.Second / SampleRate

	call.Runner().Logger().Debug("Sound loaded", "name", s.Name, "duration", s.Duration, "instances", s.Instances)
	return add(call, call.Arg("name"), s)
}

func (m *Sounds) soundFont(call *conscript.Call) error {
	data, p, err := readContent(call, call.Arg("path").Str())
	if err != nil {
		return err
	}
	font, err := ParseSoundFont(call.Arg("name").Str(), p, data)
	if err != nil {
		return err
	}
	call.Runner().Logger().Info("SoundFont loaded", "name", font.Name, "bank", font.Bank, "presets", font.Presets)
	return add(call, call.Arg("name"), font)
}

// ParseSoundFont parses SF2 data read from path. Parse failures are
// returned as *conscript.ContentError.
func ParseSoundFont(name, path string, data []byte) (*SoundFont, error) {
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, &conscript.ContentError{Path: path, Err: fmt.Errorf("failed to parse SoundFont: %w", err)}
	}
	font := &SoundFont{
		Name:        name,
		Path:        path,
		Presets:     len(sf.Presets),
		Instruments: len(sf.Instruments),
		Font:        sf,
	}
	if sf.Info != nil {
		font.Bank = sf.Info.BankName
	}
	return font, nil
}

func (m *Sounds) music(call *conscript.Call) error {
	mu := &Music{
		Name:      call.Arg("name").Str(),
		Loop:      call.Arg("loop").Bool(),
		SoundFont: call.Arg("soundFont").Str(),
	}
	if mu.SoundFont != "" {
		if _, err := lookup[*SoundFont](call, mu.SoundFont); err != nil {
			return call.ParamErrorf(call.Arg("soundFont"), "%v", err)
		}
	}

	data, p, err := readContent(call, call.Arg("path").Str())
	if err != nil {
		return err
	}
	mu.Path = p
	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return &conscript.ContentError{Path: p, Err: fmt.Errorf("failed to parse MIDI file: %w", err)}
	}
	mu.Duration = midi.GetLength()

	call.Runner().Logger().Debug("Music loaded", "name", mu.Name, "duration", mu.Duration, "loop", mu.Loop)
	return add(call, call.Arg("name"), mu)
}
