// ABOUTME: Package audio provides shared audio types for the bridge
// ABOUTME: Formats and interleaved float32 sample blocks
package audio
