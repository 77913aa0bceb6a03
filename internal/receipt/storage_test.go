package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "documents"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the storage directory", func() {
		info, err := os.Stat(filepath.Join(tmpDir, "documents"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("should save, read and delete a document", func() {
		name, err := storage.Save("id-1_receipt.jpg", []byte("jpeg"))
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("id-1_receipt.jpg"))

		data, err := storage.Get(name)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("jpeg")))

		Expect(storage.Delete(name)).To(Succeed())
		_, err = storage.Get(name)
		Expect(err).To(MatchError(ErrNotFound))
	})

	It("should keep documents inside the storage directory", func() {
		name, err := storage.Save("../../escape.txt", []byte("x"))
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("escape.txt"))
		Expect(filepath.Join(tmpDir, "documents", "escape.txt")).To(BeAnExistingFile())
	})

	It("should reject names without a file", func() {
		_, err := storage.Save("..", []byte("x"))
		Expect(err).To(HaveOccurred())
	})

	It("should fail to delete a missing document", func() {
		Expect(storage.Delete("missing.jpg")).NotTo(Succeed())
	})
})

var _ = Describe("sanitizeFilename", func() {
	DescribeTable("names",
		func(input, expected string) {
			Expect(sanitizeFilename(input)).To(Equal(expected))
		},
		Entry("plain", "receipt.jpg", "receipt.jpg"),
		Entry("special characters", "Target (1) #2!.JPG", "Target 1 2.jpg"),
		Entry("path components", "../../etc/passwd", "passwd"),
		Entry("nothing left", "!!!.png", "receipt.png"),
		Entry("no name at all", "", "receipt"),
		Entry("long names", "a123456789b123456789c123456789d123456789e123456789f123.pdf", "a123456789b123456789c123456789d123456789e123456789.pdf"),
	)
})
