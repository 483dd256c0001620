package mcpserver

// KnowledgeGuide tells MCP clients how finsage stores and answers from
// reference material.
const KnowledgeGuide = `# finsage Knowledge Guide

finsage answers personal finance questions from a local knowledge base of
reference documents. Answers are grounded only in the stored documents.

## Supported formats

| extension | how text is read |
|-----------|------------------|
| .txt      | UTF-8 text; a leading byte order mark is ignored |
| .pdf      | text of every page, in page order |
| .docx     | paragraph text of the main document, in order |

Other formats are rejected.

## Adding documents

- ` + "`" + `add_document` + "`" + ` stores plain text you already have.
- ` + "`" + `ingest_file` + "`" + ` stores a .txt, .pdf or .docx file given as a base64
  data URI or an http(s) URL.
- A document whose content is identical to a stored one is rejected as a
  duplicate, whatever its title.
- Empty or whitespace-only content is rejected.

## Asking

- ` + "`" + `ask_question` + "`" + ` only answers personal finance questions (budgeting,
  saving, investing, debt, taxes, insurance, retirement, careers, housing).
  Other questions are declined without consulting the model.
- ` + "`" + `search_documents` + "`" + ` returns the raw passages that would be used as
  context, ranked by lexical overlap with the query.
`
