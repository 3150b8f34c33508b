package ffopts

// DefaultUserAgent is the format user-agent staged by DefaultOptions.
const DefaultUserAgent = "go-ffoptions"

// DefaultOptions returns a store holding a conservative playback baseline:
//
//	player  max-fps=30 framedrop=0 video-pictq-size=3
//	        videotoolbox=0 videotoolbox-max-frame-width=960
//	format  auto_convert=0 reconnect=1 timeout=30000000 (µs)
//	        user-agent=DefaultUserAgent
//	codec   skip_loop_filter=DiscardAll skip_frame=DiscardDefault
func DefaultOptions(opts ...StoreOption) *Store {
	store := New(opts...)

	_ = store.SetPlayerInt("max-fps", 30)
	_ = store.SetPlayerInt("framedrop", 0)
	_ = store.SetPlayerInt("video-pictq-size", 3)
	_ = store.SetPlayerInt("videotoolbox", 0)
	_ = store.SetPlayerInt("videotoolbox-max-frame-width", 960)

	_ = store.SetFormatInt("auto_convert", 0)
	_ = store.SetFormatInt("reconnect", 1)
	_ = store.SetFormatInt("timeout", 30*1000*1000)
	_ = store.SetFormatString("user-agent", DefaultUserAgent)

	_ = store.SetCodecInt("skip_loop_filter", int64(DiscardAll))
	_ = store.SetCodecInt("skip_frame", int64(DiscardDefault))

	return store
}
