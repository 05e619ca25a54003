package expense

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		basePath string
		storage  *LocalStorage
	)

	BeforeEach(func() {
		basePath = filepath.Join(GinkgoT().TempDir(), "receipts")
		var err error
		storage, err = NewLocalStorage(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the base directory", func() {
		info, err := os.Stat(basePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("saves and retrieves a file", func() {
		path, err := storage.Save("abc_receipt.jpg", []byte("image-bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("abc_receipt.jpg"))

		data, err := storage.Get(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("image-bytes")))
	})

	It("deletes a file", func() {
		path, err := storage.Save("abc_receipt.jpg", []byte("image-bytes"))
		Expect(err).NotTo(HaveOccurred())

		Expect(storage.Delete(path)).To(Succeed())

		_, err = storage.Get(path)
		Expect(err).To(HaveOccurred())
	})

	It("errors when deleting a missing file", func() {
		Expect(storage.Delete("never-saved.jpg")).To(HaveOccurred())
	})
})
