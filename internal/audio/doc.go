// Package audio plays a sound when a snack becomes visible. It uses the
// beep library to decode WAV, OGG and MP3 files, with one configurable
// sound per variant and a global volume.
package audio
