// Package testutil provides test doubles and fixtures shared by the pipeline,
// handler and server tests.
//
//   - MockTranscriber / MockTranscoder: testify mocks for the two external
//     collaborators of the pipeline.
//   - WriteWav / MultipartUpload: fixtures for building canonical audio files
//     and multipart request bodies.
//   - AssertDirEmpty: checks that no scratch artifact survived a request.
package testutil
