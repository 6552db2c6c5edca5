package document

import "strings"

// DefaultTemplateID identifies the built-in template.
const DefaultTemplateID = "default"

// DefaultHonorClause is used when a period has no honor-component clause.
const DefaultHonorClause = "biaya pajak, bea meterai, dan jasa pelayanan keuangan"

// DefaultTemplate returns the built-in contract with articles 1 to 12.
// honorClause lists what the honorarium already includes and is printed as
// literal text; blank selects DefaultHonorClause.
func DefaultTemplate(honorClause string) Template {
	honorClause = strings.TrimSpace(honorClause)
	if honorClause == "" {
		honorClause = DefaultHonorClause
	}

	return Template{
		ID:   DefaultTemplateID,
		Name: "Perjanjian Kerja Mitra Statistik",
		Opening: Parse(`PERJANJIAN KERJA PETUGAS KEGIATAN STATISTIK TAHUN ANGGARAN {{tahun_anggaran}}
NOMOR: {{nomor_surat}}
Pada hari ini {{tanggal_surat_terbilang}}, yang bertanda tangan di bawah ini:`),
		PartyOne: Parse(`{{nama_pejabat}}, NIP {{nip_pejabat}}, {{jabatan_pejabat}}, dalam hal ini bertindak untuk dan atas nama instansi, selanjutnya disebut sebagai PIHAK PERTAMA.`),
		PartyTwo: Parse(`{{nama_mitra}}, NIK {{nik_mitra}}, beralamat di {{alamat_mitra}}, dalam hal ini bertindak untuk dan atas nama diri sendiri, selanjutnya disebut sebagai PIHAK KEDUA.`),
		Agreement: Parse(`Bahwa PIHAK PERTAMA dan PIHAK KEDUA yang secara bersama-sama disebut PARA PIHAK sepakat untuk mengikatkan diri dalam Perjanjian Kerja dengan ketentuan sebagai berikut:`),
		Articles: []Article{
			{Number: 1, Title: ParseTitle("Ruang Lingkup"), Body: Parse(`PIHAK PERTAMA memberikan pekerjaan kepada PIHAK KEDUA dan PIHAK KEDUA menerima pekerjaan tersebut sebagaimana tercantum dalam Lampiran Perjanjian ini.`)},
			{Number: 2, Title: ParseTitle("Jangka Waktu"), Body: Parse(`Jangka waktu pelaksanaan pekerjaan mengikuti jadwal setiap kegiatan sebagaimana tercantum dalam Lampiran Perjanjian ini.`)},
			{Number: 3, Title: ParseTitle("Kewajiban PIHAK KEDUA"), Body: Parse(`PIHAK KEDUA wajib melaksanakan pekerjaan sesuai pedoman dan arahan PIHAK PERTAMA.
PIHAK KEDUA wajib menjaga kerahasiaan data yang diperoleh selama pelaksanaan pekerjaan.`)},
			{Number: 4, Title: ParseTitle("Hak PIHAK KEDUA"), Body: Parse(`PIHAK KEDUA berhak menerima honorarium atas pekerjaan yang telah diselesaikan sesuai target.`)},
			{Number: 5, Title: ParseTitle("Target Pekerjaan"), Body: Parse(`Target pekerjaan PIHAK KEDUA adalah sebagaimana tercantum dalam Lampiran Perjanjian ini.`)},
			{Number: 6, Title: ParseTitle("Honorarium"), Body: append(
				Parse(`PIHAK KEDUA berhak menerima honorarium dari PIHAK PERTAMA sebesar {{total_honor}} ({{terbilang_honor}}).`),
				Paragraph{Text{Value: "Honorarium tersebut sudah termasuk " + honorClause + "."}},
			)},
			{Number: 7, Title: ParseTitle("Pembayaran"), Body: Parse(`Pembayaran honorarium dilakukan setelah PIHAK KEDUA menyelesaikan pekerjaan yang dibuktikan dengan berita acara serah terima hasil pekerjaan.`)},
			{Number: 8, Title: ParseTitle("Pemeriksaan Hasil Pekerjaan"), Body: Parse(`PIHAK PERTAMA berhak memeriksa hasil pekerjaan PIHAK KEDUA sebelum pembayaran dilakukan.`)},
			{Number: 9, Title: ParseTitle("Pemutusan Perjanjian"), Body: Parse(`PIHAK PERTAMA dapat memutuskan Perjanjian ini secara sepihak apabila PIHAK KEDUA tidak melaksanakan kewajibannya.`)},
			{Number: 10, Title: ParseTitle("Keadaan Kahar"), Body: Parse(`PARA PIHAK dibebaskan dari tanggung jawab atas keterlambatan pelaksanaan pekerjaan yang disebabkan oleh keadaan kahar.`)},
			{Number: 11, Title: ParseTitle("Penyelesaian Perselisihan"), Body: Parse(`Perselisihan yang timbul dari Perjanjian ini diselesaikan secara musyawarah untuk mufakat.`)},
			{Number: 12, Title: ParseTitle("Penutup"), Body: Parse(`Hal-hal yang belum diatur dalam Perjanjian ini akan diatur kemudian oleh PARA PIHAK.`)},
		},
		Closing: Parse(`Demikian Perjanjian ini dibuat dalam rangkap 2 (dua) dan ditandatangani oleh PARA PIHAK pada tanggal {{tanggal_surat}}.
PIHAK KEDUA, {{nama_mitra}}
PIHAK PERTAMA, {{nama_pejabat}}
{{lampiran}}`),
	}
}
