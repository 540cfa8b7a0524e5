// Package jtalk speaks text through an external synthesizer and audio
// player.
//
// A Speaker owns a cache of synthesized audio keyed by text, so repeated
// utterances are played without synthesizing them again. Talk speaks a single
// utterance; TalkQueue speaks a list in order while synthesizing later items
// during playback of earlier ones. Both return a Handle that can cancel the
// work in flight.
//
//	s, err := jtalk.New(config.Default())
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	outcome := s.Talk("こんにちは").Wait()
package jtalk
