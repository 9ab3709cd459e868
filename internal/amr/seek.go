package amr

// framePos is a resolved seek target: an absolute frame number, the byte
// offset of its header, and its duration.
type framePos struct {
	frame    uint64
	offset   int64
	duration uint32
}

// cursor tracks the read position between sequential frame reads. run and
// inRun locate the covering RunEntry so advancing by one frame is O(1).
type cursor struct {
	frame  uint64
	offset int64
	pts    int64
	run    int
	inRun  uint64
}

// frameAtTime resolves targetUs to the frame whose 20ms slot covers it,
// walking the run table in O(runs). Out-of-range times clamp to the first or
// last frame; callers never see a range error.
func (x *frameIndex) frameAtTime(targetUs int64) framePos {
	if targetUs < 0 {
		targetUs = 0
	}
	if last := int64(x.totalDuration) - 1; targetUs > last {
		targetUs = last
	}

	var (
		frame   uint64
		elapsed int64
	)
	offset := x.firstOffset
	for _, run := range x.runs {
		runDur := int64(run.FrameCount) * int64(run.FrameDuration)
		if targetUs < elapsed+runDur {
			n := uint64(targetUs-elapsed) / uint64(run.FrameDuration)
			return framePos{
				frame:    frame + n,
				offset:   offset + int64(n)*int64(run.FrameSize),
				duration: run.FrameDuration,
			}
		}
		elapsed += runDur
		frame += run.FrameCount
		offset += int64(run.FrameCount) * int64(run.FrameSize)
	}
	// Empty index; buildIndex never lets one escape.
	return framePos{offset: x.firstOffset, duration: FrameDurationUs}
}

// cursorAt positions a cursor on frameNumber by the same run traversal keyed
// on count. Numbers past the end clamp to the last frame.
func (x *frameIndex) cursorAt(frameNumber uint64) cursor {
	if x.totalFrames > 0 && frameNumber >= x.totalFrames {
		frameNumber = x.totalFrames - 1
	}

	c := cursor{offset: x.firstOffset}
	for i, run := range x.runs {
		if frameNumber < c.frame+run.FrameCount {
			n := frameNumber - c.frame
			c.frame = frameNumber
			c.offset += int64(n) * int64(run.FrameSize)
			c.pts += int64(n) * int64(run.FrameDuration)
			c.run = i
			c.inRun = n
			return c
		}
		c.frame += run.FrameCount
		c.offset += int64(run.FrameCount) * int64(run.FrameSize)
		c.pts += int64(run.FrameCount) * int64(run.FrameDuration)
	}
	return c
}
