package tone

import (
	"time"

	"periph.io/x/periph/conn/physic"
)

// Equal-tempered pitches for the octaves the buzzer can usefully produce.
// Enharmonic pairs (CS3/DF3, ...) share a frequency.
const (
	C3  physic.Frequency = 130800 * physic.MilliHertz
	CS3 physic.Frequency = 138600 * physic.MilliHertz
	D3  physic.Frequency = 146800 * physic.MilliHertz
	DS3 physic.Frequency = 155600 * physic.MilliHertz
	E3  physic.Frequency = 164800 * physic.MilliHertz
	F3  physic.Frequency = 174600 * physic.MilliHertz
	FS3 physic.Frequency = 185 * physic.Hertz
	G3  physic.Frequency = 196 * physic.Hertz
	GS3 physic.Frequency = 207700 * physic.MilliHertz
	A3  physic.Frequency = 220 * physic.Hertz
	AS3 physic.Frequency = 233100 * physic.MilliHertz
	B3  physic.Frequency = 246900 * physic.MilliHertz

	C4  physic.Frequency = 261600 * physic.MilliHertz
	CS4 physic.Frequency = 277200 * physic.MilliHertz
	D4  physic.Frequency = 293700 * physic.MilliHertz
	DS4 physic.Frequency = 311100 * physic.MilliHertz
	E4  physic.Frequency = 329600 * physic.MilliHertz
	F4  physic.Frequency = 349200 * physic.MilliHertz
	FS4 physic.Frequency = 370 * physic.Hertz
	G4  physic.Frequency = 392 * physic.Hertz
	GS4 physic.Frequency = 415300 * physic.MilliHertz
	A4  physic.Frequency = 440 * physic.Hertz
	AS4 physic.Frequency = 466200 * physic.MilliHertz
	B4  physic.Frequency = 493900 * physic.MilliHertz

	C5  physic.Frequency = 523300 * physic.MilliHertz
	CS5 physic.Frequency = 554400 * physic.MilliHertz
	D5  physic.Frequency = 587300 * physic.MilliHertz
	DS5 physic.Frequency = 622300 * physic.MilliHertz
	E5  physic.Frequency = 659300 * physic.MilliHertz
	F5  physic.Frequency = 698500 * physic.MilliHertz
	FS5 physic.Frequency = 740 * physic.Hertz
	G5  physic.Frequency = 784 * physic.Hertz
	GS5 physic.Frequency = 830600 * physic.MilliHertz
	A5  physic.Frequency = 880 * physic.Hertz
	AS5 physic.Frequency = 932300 * physic.MilliHertz
	B5  physic.Frequency = 987800 * physic.MilliHertz
)

// OdeToJoy is the demo song that ships with the board.
var OdeToJoy = []Note{
	{G3, 800 * time.Millisecond},
	{G3, 800 * time.Millisecond},
	{A3, 800 * time.Millisecond},
	{B3, 800 * time.Millisecond},
	{B3, 800 * time.Millisecond},
	{A3, 800 * time.Millisecond},
	{G3, 800 * time.Millisecond},
	{FS3, 800 * time.Millisecond},
	{G3, 800 * time.Millisecond},
	{B3, 800 * time.Millisecond},
	{C4, 800 * time.Millisecond},
	{D4, 800 * time.Millisecond},
	{D4, 1200 * time.Millisecond},
	{D4, 200 * time.Millisecond},
	{D4, 1600 * time.Millisecond},
}
