package audio

import "errors"

// ErrFileNotFound indicates the specified input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrExtractFailed indicates FFmpeg failed while extracting or encoding audio.
var ErrExtractFailed = errors.New("audio extraction failed")

// ErrSplitFailed indicates FFmpeg failed while splitting audio into segments.
var ErrSplitFailed = errors.New("audio splitting failed")

// ErrProbeFailed indicates ffprobe could not report the audio duration.
var ErrProbeFailed = errors.New("could not probe audio duration")

// ErrNoClips indicates no key-idea clip could be extracted.
var ErrNoClips = errors.New("no audio clips extracted")

// ErrMissingTimestamps indicates the key ideas have not been aligned yet.
var ErrMissingTimestamps = errors.New("ideas are missing timestamps")
