// Package media defines the frame and track types that flow from the amrx
// demux core to the serving and tooling layers.
package media

// Frame is a single coded speech frame read from a container. Data holds the
// complete frame as stored, including the one-byte frame header, and is owned
// by the receiver.
type Frame struct {
	PTS        int64 // presentation time in microseconds from track start
	Duration   int64 // frame duration in microseconds
	Data       []byte
	SampleRate int
	Channels   int
}

// TrackInfo describes the single audio track of an opened container.
type TrackInfo struct {
	MIME              string
	SampleRate        int
	Channels          int
	Duration          int64 // total track duration in microseconds
	ConstantFrameRate bool  // true when every frame shares one size and duration
}
