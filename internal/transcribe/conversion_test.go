package transcribe

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	return img
}

var _ = Describe("toPNG", func() {
	It("should return PNG input untouched", func() {
		var buf bytes.Buffer
		Expect(png.Encode(&buf, sampleImage())).To(Succeed())

		out, err := toPNG(buf.Bytes(), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(buf.Bytes()))
	})

	It("should convert JPEG to PNG", func() {
		var buf bytes.Buffer
		Expect(jpeg.Encode(&buf, sampleImage(), nil)).To(Succeed())

		out, err := toPNG(buf.Bytes(), "IMAGE/JPEG; charset=binary")
		Expect(err).NotTo(HaveOccurred())
		_, format, err := image.Decode(bytes.NewReader(out))
		Expect(err).NotTo(HaveOccurred())
		Expect(format).To(Equal("png"))
	})

	It("should reject documents that are not images", func() {
		_, err := toPNG([]byte("hello"), "application/msword")
		Expect(err).To(MatchError(ErrUnsupportedFormat))
	})

	It("should reject undecodable image data", func() {
		_, err := toPNG([]byte("not really a gif"), "image/gif")
		Expect(err).To(MatchError(ErrUnsupportedFormat))
	})
})

var _ = Describe("isHEIC", func() {
	DescribeTable("detection",
		func(data []byte, mimeType string, expected bool) {
			Expect(isHEIC(data, mimeType)).To(Equal(expected))
		},
		Entry("heic brand", []byte("\x00\x00\x00\x18ftypheic...."), "", true),
		Entry("mif1 brand", []byte("\x00\x00\x00\x18ftypmif1...."), "image/jpeg", true),
		Entry("mime type only", []byte{}, "image/heif", true),
		Entry("mp4 brand", []byte("\x00\x00\x00\x18ftypisom...."), "video/mp4", false),
		Entry("too short", []byte("ftyp"), "image/jpeg", false),
	)
})

var _ = Describe("normalizeContentType", func() {
	It("should default unknown uploads to JPEG", func() {
		Expect(normalizeContentType("")).To(Equal("image/jpeg"))
		Expect(normalizeContentType("application/octet-stream")).To(Equal("image/jpeg"))
	})

	It("should drop parameters", func() {
		Expect(normalizeContentType(" Application/PDF ; name=a.pdf")).To(Equal("application/pdf"))
	})
})
